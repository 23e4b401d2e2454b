// Package tree assembles comment forests from flat storage rows and prunes
// soft-deleted branches for display.
package tree

import (
	"github.com/samber/lo"

	"github.com/anonto42/discussion-tree/backend/internal/models"
)

// Build links flat rows into trees rooted at rootIDs, in the order of rootIDs.
// Children keep the order they have in rows. Unknown roots are skipped.
// Returned nodes are copies; rows is left untouched.
func Build(rows []models.Comment, rootIDs ...string) []*models.Comment {
	byID := make(map[string]*models.Comment, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}

	byParent := lo.GroupBy(
		lo.Filter(rows, func(c models.Comment, _ int) bool { return c.ParentID != nil }),
		func(c models.Comment) string { return *c.ParentID },
	)

	visited := make(map[string]bool, len(rows))
	var link func(src *models.Comment) *models.Comment
	link = func(src *models.Comment) *models.Comment {
		visited[src.ID] = true
		node := src.Clone()
		node.Children = make([]*models.Comment, 0, len(byParent[src.ID]))
		for i := range byParent[src.ID] {
			child := byParent[src.ID][i]
			if visited[child.ID] {
				continue
			}
			node.Children = append(node.Children, link(&child))
		}
		return node
	}

	out := make([]*models.Comment, 0, len(rootIDs))
	for _, id := range rootIDs {
		if root, ok := byID[id]; ok && !visited[id] {
			out = append(out, link(root))
		}
	}
	return out
}

// Filter returns a copy of nodes with every soft-deleted node dropped together
// with its whole subtree. A nil input yields an empty, non-nil slice.
func Filter(nodes []*models.Comment) []*models.Comment {
	out := make([]*models.Comment, 0, len(nodes))
	for _, n := range nodes {
		if n == nil || n.IsDeleted {
			continue
		}
		cp := n.Clone()
		cp.Author = n.Author
		cp.Children = Filter(n.Children)
		out = append(out, cp)
	}
	return out
}

// Walk calls fn for every node of the forest, parents before children.
func Walk(nodes []*models.Comment, fn func(*models.Comment)) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		fn(n)
		Walk(n.Children, fn)
	}
}

// AuthorIDs returns the distinct author ids found in the forest.
func AuthorIDs(nodes []*models.Comment) []string {
	var ids []string
	Walk(nodes, func(c *models.Comment) { ids = append(ids, c.AuthorID) })
	return lo.Uniq(ids)
}
