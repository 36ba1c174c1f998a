package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/agencyloop/agencyloop-backend/internal/db"
	"github.com/agencyloop/agencyloop-backend/internal/flowtemplate"
	"github.com/agencyloop/agencyloop-backend/internal/logger"
	"github.com/agencyloop/agencyloop-backend/internal/repos"
	"github.com/agencyloop/agencyloop-backend/internal/types"
)

var rootCmd = &cobra.Command{
	Use:   "flowctl",
	Short: "Manage onboarding flow templates",
	Long:  `flowctl validates onboarding flow templates and seeds them into client orgs.`,
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newPrintDefaultCmd())
	rootCmd.AddCommand(newSeedCmd())
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <template.yaml>",
		Short: "Validate a flow template file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := flowtemplate.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Template %q is valid (%d nodes):\n", t.Name, len(t.Nodes))
			for i, n := range t.Nodes {
				fmt.Printf("  %d: [%s] %s\n", i, n.Type, n.Title)
			}
			return nil
		},
	}
}

func newPrintDefaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "print-default",
		Short: "Print the built-in default flow template as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := yaml.Marshal(flowtemplate.Default())
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	var (
		orgSlug      string
		templatePath string
		yes          bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed a flow template into an existing org",
		Long: `Seed appends the template's nodes to an org's onboarding flow.
When --org is omitted, the org is chosen interactively.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			log, err := logger.New("production")
			if err != nil {
				return fmt.Errorf("failed to init logger: %w", err)
			}
			defer log.Sync()

			tmpl := flowtemplate.Default()
			if templatePath != "" {
				if tmpl, err = flowtemplate.Load(templatePath); err != nil {
					return err
				}
			}

			pg, err := db.NewPostgresService(log)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			orgRepo := repos.NewOrgRepo(pg.DB(), log)
			nodeRepo := repos.NewOnboardingNodeRepo(pg.DB(), log)

			org, err := resolveOrg(ctx, pg.DB(), orgRepo, orgSlug)
			if err != nil {
				return err
			}

			if !yes {
				confirm := promptui.Prompt{
					Label:     fmt.Sprintf("Seed %d nodes into %q", len(tmpl.Nodes), org.Name),
					IsConfirm: true,
				}
				if _, err := confirm.Run(); err != nil {
					if err == promptui.ErrInterrupt || err == promptui.ErrAbort {
						fmt.Println("Aborted.")
						return nil
					}
					return err
				}
			}

			max, err := nodeRepo.MaxPosition(ctx, nil, org.ID)
			if err != nil {
				return fmt.Errorf("failed to read current flow: %w", err)
			}
			nodes := make([]*types.OnboardingNode, 0, len(tmpl.Nodes))
			for i, n := range tmpl.Nodes {
				cfgJSON := []byte("{}")
				if n.Config != nil {
					raw, mErr := json.Marshal(n.Config)
					if mErr != nil {
						return fmt.Errorf("node %d config is not serializable: %w", i, mErr)
					}
					cfgJSON = raw
				}
				nodes = append(nodes, &types.OnboardingNode{
					ID:          uuid.New(),
					OrgID:       org.ID,
					NodeType:    n.Type,
					Title:       n.Title,
					Description: n.Description,
					Config:      datatypes.JSON(cfgJSON),
					Position:    max + 1 + i,
				})
			}
			if _, err := nodeRepo.Create(ctx, nil, nodes); err != nil {
				return fmt.Errorf("failed to seed flow: %w", err)
			}
			fmt.Printf("Seeded %d nodes into %q.\n", len(nodes), org.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&orgSlug, "org", "", "org slug to seed")
	cmd.Flags().StringVar(&templatePath, "template", "", "template YAML path (default: built-in flow)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func resolveOrg(ctx context.Context, gdb *gorm.DB, orgRepo repos.OrgRepo, slug string) (*types.Org, error) {
	if slug != "" {
		orgs, err := orgRepo.GetBySlugs(ctx, nil, []string{slug})
		if err != nil {
			return nil, fmt.Errorf("failed to look up org: %w", err)
		}
		if len(orgs) == 0 {
			return nil, fmt.Errorf("no org with slug %q", slug)
		}
		return orgs[0], nil
	}

	var all []*types.Org
	if err := gdb.WithContext(ctx).Order("name ASC").Find(&all).Error; err != nil {
		return nil, fmt.Errorf("failed to list orgs: %w", err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no orgs exist yet")
	}
	labels := make([]string, 0, len(all))
	for _, o := range all {
		labels = append(labels, fmt.Sprintf("%s (%s)", o.Name, o.Slug))
	}
	sel := promptui.Select{Label: "Select org", Items: labels}
	idx, _, err := sel.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			return nil, fmt.Errorf("aborted")
		}
		return nil, err
	}
	return all[idx], nil
}
