// Package compliance screens partners, clients and users for KYC/AML risk.
//
// A check loads the entity, runs the deterministic geography and PEP screens,
// an optional language-model risk assessment and, when a document is involved,
// a consistency check against its OCR extraction. Every finding carries a fixed
// score impact; the summed score drives both the verdict and the risk level.
package compliance
