package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gustalya/gustalya/internal/domain"
	"github.com/gustalya/gustalya/internal/recipefile"
	"github.com/gustalya/gustalya/internal/storage"
)

func newRecipesCommand(ctx *commandContext) *cobra.Command {
	recipesCmd := &cobra.Command{
		Use:   "recipes",
		Short: "Manage stored recipes",
	}

	recipesCmd.AddCommand(newRecipesListCommand(ctx))
	recipesCmd.AddCommand(newRecipesImportCommand(ctx))
	recipesCmd.AddCommand(newRecipesExportCommand(ctx))

	return recipesCmd
}

func (c *commandContext) withRepository(fn func(storage.Repository) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()
	return fn(repo)
}

func newRecipesListCommand(ctx *commandContext) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored recipes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRepository(func(repo storage.Repository) error {
				recipes, err := repo.ListRecipes(cmd.Context(), strings.TrimSpace(owner))
				if err != nil {
					return fmt.Errorf("list recipes: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(recipes) == 0 {
					fmt.Fprintln(out, "No recipes stored")
					return nil
				}
				fmt.Fprintln(out, renderRecipeTable(recipes))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Only list recipes of this user")
	return cmd
}

func renderRecipeTable(recipes []domain.Recipe) string {
	caser := cases.Title(language.French)
	rows := make([][]string, 0, len(recipes))
	for _, r := range recipes {
		owner := r.OwnerID
		if owner == "" {
			owner = "-"
		}
		rows = append(rows, []string{
			shortID(r.ID),
			r.Title,
			caser.String(r.Category),
			owner,
			strconv.Itoa(len(r.Steps)),
			domain.FormatDuration(r.TimedSeconds()),
		})
	}
	return renderTable(
		[]string{"ID", "Title", "Category", "Owner", "Steps", "Timed"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func newRecipesImportCommand(ctx *commandContext) *cobra.Command {
	var owner string
	var replace bool

	cmd := &cobra.Command{
		Use:   "import <file-or-directory>",
		Short: "Import recipes from YAML files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recipes, err := recipefile.Load(args[0])
			if err != nil {
				return err
			}
			return ctx.withRepository(func(repo storage.Repository) error {
				created, updated, err := importRecipes(cmd.Context(), repo, recipes, strings.TrimSpace(owner), replace)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d recipes (%d created, %d updated)\n", created+updated, created, updated)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Owner of the imported recipes (empty shares them)")
	cmd.Flags().BoolVar(&replace, "replace", false, "Update recipes whose id already exists")
	return cmd
}

func importRecipes(ctx context.Context, repo storage.Repository, recipes []domain.Recipe, owner string, replace bool) (created, updated int, err error) {
	for i := range recipes {
		recipe := &recipes[i]
		recipe.OwnerID = owner

		existing, err := repo.GetRecipe(ctx, recipe.ID)
		switch {
		case err == nil:
			if !replace {
				return created, updated, fmt.Errorf("recipe %q already exists (use --replace)", existing.ID)
			}
			recipe.CreatedAt = existing.CreatedAt
			if err := repo.UpdateRecipe(ctx, recipe); err != nil {
				return created, updated, fmt.Errorf("update recipe %q: %w", recipe.Title, err)
			}
			updated++
		case errors.Is(err, storage.ErrRecipeNotFound):
			if err := repo.CreateRecipe(ctx, recipe); err != nil {
				return created, updated, fmt.Errorf("create recipe %q: %w", recipe.Title, err)
			}
			created++
		default:
			return created, updated, fmt.Errorf("look up recipe %q: %w", recipe.ID, err)
		}
	}
	return created, updated, nil
}

func newRecipesExportCommand(ctx *commandContext) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export stored recipes to a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRepository(func(repo storage.Repository) error {
				recipes, err := repo.ListRecipes(cmd.Context(), strings.TrimSpace(owner))
				if err != nil {
					return fmt.Errorf("list recipes: %w", err)
				}
				if err := recipefile.SaveFile(args[0], recipes); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d recipes to %s\n", len(recipes), args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Only export recipes of this user")
	return cmd
}
