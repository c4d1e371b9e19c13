// Package thread turns the flat comment list of a blog into a sorted reply tree.
package thread

import (
	"slices"

	"github.com/anonto42/lumina/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Node is a comment together with its ordered replies
type Node struct {
	models.Comment
	ReactionCounts map[models.Reaction]int `json:"reaction_counts,omitempty"`
	Author         *models.UserCompact     `json:"author,omitempty"`
	Children       []*Node                 `json:"children"`
}

// arena holds every comment by ID and the resolved child lists. The tree is only
// materialised into Nodes once parents have been resolved.
type arena struct {
	comments map[primitive.ObjectID]*models.Comment
	parent   map[primitive.ObjectID]primitive.ObjectID
	children map[primitive.ObjectID][]primitive.ObjectID
	order    []primitive.ObjectID
	roots    []primitive.ObjectID
}

// Build reconstructs the reply tree for the comments of one blog.
//
// A comment whose parent is missing from the set (deleted, corrupt or unknown) becomes a
// root instead of being dropped. Roots and every list of replies are sorted with comments by
// the blog author first, then pinned comments, then newest first; equal keys keep input order.
func Build(comments []models.Comment, blogAuthorID uint) []*Node {
	a := newArena(comments)
	a.resolve()
	a.breakCycles()

	roots := make([]*Node, 0, len(a.roots))
	for _, id := range a.roots {
		roots = append(roots, a.materialise(id))
	}
	sortLevel(roots, blogAuthorID)
	return roots
}

func newArena(comments []models.Comment) *arena {
	a := &arena{
		comments: make(map[primitive.ObjectID]*models.Comment, len(comments)),
		parent:   make(map[primitive.ObjectID]primitive.ObjectID),
		children: make(map[primitive.ObjectID][]primitive.ObjectID),
		order:    make([]primitive.ObjectID, 0, len(comments)),
	}
	for i := range comments {
		c := &comments[i]
		if _, dup := a.comments[c.ID]; dup {
			continue
		}
		a.comments[c.ID] = c
		a.order = append(a.order, c.ID)
	}
	return a
}

func (a *arena) resolve() {
	for _, id := range a.order {
		c := a.comments[id]
		if c.ParentID == nil || c.ParentID.IsZero() || *c.ParentID == id {
			a.roots = append(a.roots, id)
			continue
		}
		if _, ok := a.comments[*c.ParentID]; !ok {
			a.roots = append(a.roots, id)
			continue
		}
		a.parent[id] = *c.ParentID
		a.children[*c.ParentID] = append(a.children[*c.ParentID], id)
	}
}

// breakCycles promotes to root any comment that cannot be reached from a root,
// which only happens when parent references form a loop.
func (a *arena) breakCycles() {
	seen := make(map[primitive.ObjectID]bool, len(a.order))
	var mark func(id primitive.ObjectID)
	mark = func(id primitive.ObjectID) {
		seen[id] = true
		for _, child := range a.children[id] {
			if !seen[child] {
				mark(child)
			}
		}
	}
	for _, id := range a.roots {
		mark(id)
	}

	for _, id := range a.order {
		if seen[id] {
			continue
		}
		p := a.parent[id]
		a.children[p] = slices.DeleteFunc(a.children[p], func(c primitive.ObjectID) bool { return c == id })
		delete(a.parent, id)
		a.roots = append(a.roots, id)
		mark(id)
	}
}

func (a *arena) materialise(id primitive.ObjectID) *Node {
	n := &Node{Comment: *a.comments[id], Children: make([]*Node, 0, len(a.children[id]))}
	for _, child := range a.children[id] {
		n.Children = append(n.Children, a.materialise(child))
	}
	return n
}

func sortLevel(nodes []*Node, blogAuthorID uint) {
	slices.SortStableFunc(nodes, func(x, y *Node) int {
		return compare(&x.Comment, &y.Comment, blogAuthorID)
	})
	for _, n := range nodes {
		sortLevel(n.Children, blogAuthorID)
	}
}

func compare(x, y *models.Comment, blogAuthorID uint) int {
	xAuthor, yAuthor := x.AuthorID == blogAuthorID, y.AuthorID == blogAuthorID
	if xAuthor != yAuthor {
		if xAuthor {
			return -1
		}
		return 1
	}
	if x.IsPinned != y.IsPinned {
		if x.IsPinned {
			return -1
		}
		return 1
	}
	return y.CreatedAt.Compare(x.CreatedAt)
}

// Walk visits every node depth first, parents before their replies
func Walk(roots []*Node, fn func(*Node)) {
	for _, n := range roots {
		fn(n)
		Walk(n.Children, fn)
	}
}

// Count returns the number of comments in the tree
func Count(roots []*Node) int {
	total := 0
	Walk(roots, func(*Node) { total++ })
	return total
}
