package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diaglab/diaglab/internal/domain/catalog"
	"github.com/diaglab/diaglab/internal/platform/loader"
	"github.com/diaglab/diaglab/internal/platform/search"
)

var packageMatcher = search.Matcher[catalog.Package]{
	Fields: func(p catalog.Package) []string {
		return append([]string{p.Name, p.Description}, p.IncludedTests...)
	},
}

// loadView fetches a listing through a loader.View and applies query and
// facet. A failed load has already been notified by the view.
func loadView[T any](ctx context.Context, a *app, fetch loader.FetchFunc[T], m search.Matcher[T], failure, query, facet string) ([]T, error) {
	view := loader.NewView(fetch, m, a.notifier, a.logger,
		loader.WithFailureMessage[T](failure),
		loader.WithFacet[T](facet),
	)
	if err := view.Load(ctx); err != nil {
		return nil, &reportedError{err: err}
	}
	return view.SetQuery(query), nil
}

func testsCmd() *cobra.Command {
	var (
		query, category string
		listCategories  bool
	)
	cmd := &cobra.Command{
		Use:   "tests",
		Short: "List diagnostic tests",
		RunE: run(func(cmd *cobra.Command, a *app, _ []string) error {
			if listCategories {
				tests, err := a.catalog.Tests(cmd.Context(), "")
				if err != nil {
					return a.fail(err, "Failed to load tests")
				}
				for _, c := range catalog.Categories(tests) {
					fmt.Fprintln(a.out, c)
				}
				return nil
			}
			fetch := func(ctx context.Context) ([]catalog.Test, error) {
				return a.catalog.Tests(ctx, "")
			}
			tests, err := loadView(cmd.Context(), a, fetch, catalog.TestMatcher, "Failed to load tests", query, category)
			if err != nil {
				return err
			}
			printTests(a, tests)
			return nil
		}),
	}
	cmd.Flags().StringVar(&query, "search", "", "match name or description")
	cmd.Flags().StringVar(&category, "category", catalog.AllCategories, "only tests in this category")
	cmd.Flags().BoolVar(&listCategories, "categories", false, "list the categories instead")
	return cmd
}

func printTests(a *app, tests []catalog.Test) {
	if len(tests) == 0 {
		fmt.Fprintln(a.out, "No tests found")
		return
	}
	for _, t := range tests {
		fmt.Fprintf(a.out, "%-14s %-34s %-14s ₹%.0f\n", t.ID, t.Name, t.Category, t.Price)
		if t.PreparationInstructions != "" {
			fmt.Fprintf(a.out, "%14s %s\n", "", t.PreparationInstructions)
		}
	}
}

func packagesCmd() *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "packages",
		Short: "List health packages",
		RunE: run(func(cmd *cobra.Command, a *app, _ []string) error {
			pkgs, err := loadView(cmd.Context(), a, a.catalog.Packages, packageMatcher, "Failed to load packages", query, "")
			if err != nil {
				return err
			}
			if len(pkgs) == 0 {
				fmt.Fprintln(a.out, "No packages found")
				return nil
			}
			for _, p := range pkgs {
				fmt.Fprintf(a.out, "%-18s %-30s ₹%.0f\n", p.ID, p.Name, p.Price)
				fmt.Fprintf(a.out, "%18s %s\n", "", strings.Join(p.IncludedTests, ", "))
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&query, "search", "", "match name, description or included tests")
	return cmd
}

func membershipsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "memberships",
		Short: "List membership plans",
		RunE: run(func(cmd *cobra.Command, a *app, _ []string) error {
			plans, err := a.catalog.Memberships(cmd.Context())
			if err != nil {
				return a.fail(err, "Failed to load memberships")
			}
			for _, m := range plans {
				fmt.Fprintf(a.out, "%-12s %-22s ₹%.0f/month  %.0f%% off\n", m.ID, m.Name, m.MonthlyPrice, m.DiscountPercentage)
				for _, b := range m.Benefits {
					fmt.Fprintf(a.out, "%12s - %s\n", "", b)
				}
			}
			return nil
		}),
	}
}
