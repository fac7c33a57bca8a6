package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcus/adminui/internal/output"
	"github.com/marcus/adminui/internal/pagedef"
)

var rulesCmd = &cobra.Command{
	Use:   "rules [page.yaml]",
	Short: "Show the dependent-field rules of a page",
	Long: `Print the visibility and lookup filter rules of a page as a tree rooted
at the parent fields. Without an argument the built-in demo page is used.

  ● shows the child for matching parent values
  ✗ also clears the child when it hides
  ⧗ filters the child's lookup by the parent`,
	GroupID: "console",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().Int("depth", 0, "Maximum tree depth (0 = unlimited)")
	rulesCmd.Flags().BoolP("verbose", "v", false, "Show rule kinds and conditions")
}

func runRules(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	def, err := loadDefinition(path)
	if err != nil {
		return err
	}
	depth, _ := cmd.Flags().GetInt("depth")
	verbose, _ := cmd.Flags().GetBool("verbose")

	roots := ruleTree(def)
	if len(roots) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No rules.")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), def.Class)
	lines := output.RenderTreeLines(roots, output.TreeRenderOptions{MaxDepth: depth, ShowKind: verbose, ShowNote: verbose})
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(lines, "\n"))
	return nil
}

// ruleTree arranges the rules of def under their parent fields. Parents that
// are children of another rule nest under it; a parent chain that loops is
// cut where it repeats.
func ruleTree(def *pagedef.Definition) []output.TreeNode {
	labels := make(map[string]string)
	for _, f := range def.AllFields() {
		labels["#"+f.ID] = f.Label
		labels[f.ID] = f.Label
	}

	var parents []string
	children := make(map[string][]output.TreeNode)
	isChild := make(map[string]bool)
	addParent := func(p string) {
		if !slices.Contains(parents, p) {
			parents = append(parents, p)
		}
	}
	for _, r := range def.Rules.Visibility {
		addParent(r.Parent)
		isChild[r.Child] = true
		kind := "show"
		if r.ClearChildData {
			kind = "clear"
		}
		children[r.Parent] = append(children[r.Parent], output.TreeNode{
			ID: r.Child, Label: labels[r.Child], Kind: kind, Note: condition(r),
		})
	}
	for _, r := range def.Rules.Filters {
		addParent(r.Parent)
		note := "by " + r.Property
		if r.ParentRequired {
			note += ", parent required"
		}
		children[r.Parent] = append(children[r.Parent], output.TreeNode{
			ID: r.Child, Label: labels[r.Child], Kind: "filter", Note: note,
		})
	}

	var expand func(n output.TreeNode, path map[string]bool) output.TreeNode
	expand = func(n output.TreeNode, path map[string]bool) output.TreeNode {
		if path[n.ID] {
			return n
		}
		path[n.ID] = true
		defer delete(path, n.ID)
		for _, c := range children[n.ID] {
			n.Children = append(n.Children, expand(c, path))
		}
		return n
	}

	var roots []output.TreeNode
	for _, p := range parents {
		if isChild[p] {
			continue
		}
		roots = append(roots, expand(output.TreeNode{ID: p, Label: labels[p]}, map[string]bool{}))
	}
	if len(roots) == 0 && len(parents) > 0 {
		// Every parent is also a child: the rules form a loop.
		roots = append(roots, expand(output.TreeNode{ID: parents[0], Label: labels[parents[0]]}, map[string]bool{}))
	}
	return roots
}

func condition(r pagedef.VisibilityRule) string {
	switch {
	case r.ShowIf != nil:
		return "= " + *r.ShowIf
	case len(r.ShowIfIn) > 0:
		return "in " + strings.Join(r.ShowIfIn, ", ")
	case r.ShowIfNonEmpty:
		return "non-empty"
	}
	return ""
}
