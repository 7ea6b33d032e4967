package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/concierge/internal/cli"
	"github.com/Veraticus/concierge/internal/discovery"
	"github.com/Veraticus/concierge/internal/model"
)

func discoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find prospective partners on the web",
		Long: `Plan web search queries for the requirements, search, and extract up to
ten candidate partners with an LLM. With --auto-outreach the first three
candidates that have an email address are sent a partnership invite.`,
		Example: `  concierge discover --requirements "private jet charter" --category jet --regions Monaco,Nice
  concierge discover --requirements "yacht crew" --format json`,
		RunE: runDiscover,
	}

	cmd.Flags().String("requirements", "", "free-text description of the partner you need (required)")
	cmd.Flags().String("category", "", "service category (jet, yacht, villa, ...)")
	cmd.Flags().StringSlice("regions", nil, "regions to search, comma separated")
	cmd.Flags().Bool("auto-outreach", false, "invite the first candidates with an email")
	cmd.Flags().String("format", formatText, "output format (text, json)")
	_ = cmd.MarkFlagRequired("requirements")

	return cmd
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	if err := validateFormat(format); err != nil {
		return err
	}

	req := model.DiscoveryRequest{}
	req.Requirements, _ = cmd.Flags().GetString("requirements")
	req.Category, _ = cmd.Flags().GetString("category")
	req.Regions, _ = cmd.Flags().GetStringSlice("regions")
	req.AutoOutreach, _ = cmd.Flags().GetBool("auto-outreach")

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

	result, err := cli.WithSpinner(os.Stderr, "Searching for partners", func() (*discovery.Result, error) {
		return a.discovery.Discover(ctx, req)
	})
	if err != nil {
		return err
	}

	if format == formatJSON {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	return cli.RenderDiscovery(cmd.OutOrStdout(), result)
}
