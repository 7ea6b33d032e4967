package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/concierge/internal/cli"
	"github.com/Veraticus/concierge/internal/compliance"
	"github.com/Veraticus/concierge/internal/model"
)

func screenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "screen",
		Short: "Run a KYC/AML check on a partner, client or user",
		Long: `Screen a stored entity for jurisdiction, PEP, sanctions, adverse media and
document risk. The verdict is persisted as a verification record and high
risk results raise an admin notification.`,
		Example: `  concierge screen --entity-type partner --entity-id p-123
  concierge screen --entity-type client --entity-id c-9 --document-id doc-1 --level enhanced`,
		RunE: runScreen,
	}

	cmd.Flags().String("entity-type", "", "entity type (partner, client, user)")
	cmd.Flags().String("entity-id", "", "entity identifier")
	cmd.Flags().String("trigger", "manual", "what triggered the check")
	cmd.Flags().String("document-id", "", "identity document to verify")
	cmd.Flags().String("level", string(model.LevelStandard), "verification level (basic, standard, enhanced)")
	cmd.Flags().String("format", formatText, "output format (text, json)")
	_ = cmd.MarkFlagRequired("entity-type")
	_ = cmd.MarkFlagRequired("entity-id")

	return cmd
}

func runScreen(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	if err := validateFormat(format); err != nil {
		return err
	}

	entityType, _ := cmd.Flags().GetString("entity-type")
	entityID, _ := cmd.Flags().GetString("entity-id")
	trigger, _ := cmd.Flags().GetString("trigger")
	documentID, _ := cmd.Flags().GetString("document-id")
	level, _ := cmd.Flags().GetString("level")

	req := compliance.CheckRequest{
		EntityType: model.EntityType(entityType),
		EntityID:   entityID,
		Trigger:    trigger,
		DocumentID: documentID,
		Level:      model.VerificationLevel(level),
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	a, err := buildApp(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := cli.WithSpinner(os.Stderr, "Screening "+entityType+" "+entityID, func() (*compliance.Result, error) {
		return a.compliance.Check(ctx, req)
	})
	if err != nil {
		return err
	}

	if format == formatJSON {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	return cli.RenderCompliance(cmd.OutOrStdout(), result)
}
