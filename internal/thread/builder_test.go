package thread

import (
	"testing"
	"time"

	"github.com/anonto42/lumina/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const blogAuthor uint = 1

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return base.Add(time.Duration(minutes) * time.Minute)
}

func comment(author uint, pinned bool, minutes int, parent *primitive.ObjectID) models.Comment {
	return models.Comment{
		ID:        primitive.NewObjectID(),
		AuthorID:  author,
		IsPinned:  pinned,
		CreatedAt: at(minutes),
		ParentID:  parent,
	}
}

func ids(nodes []*Node) []primitive.ObjectID {
	out := make([]primitive.ObjectID, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestBuild_AuthorThenPinnedThenNewest(t *testing.T) {
	c1 := comment(blogAuthor, false, 1, nil)
	c2 := comment(2, true, 2, nil)
	c3 := comment(3, false, 3, nil)

	for _, input := range [][]models.Comment{
		{c1, c2, c3},
		{c3, c2, c1},
		{c2, c3, c1},
	} {
		roots := Build(input, blogAuthor)
		assert.Equal(t, []primitive.ObjectID{c1.ID, c2.ID, c3.ID}, ids(roots))
	}
}

func TestBuild(t *testing.T) {
	missing := primitive.NewObjectID()
	root := comment(2, false, 1, nil)
	reply := comment(3, false, 2, &root.ID)
	authorReply := comment(blogAuthor, false, 3, &root.ID)
	nested := comment(2, false, 4, &reply.ID)
	orphan := comment(4, false, 5, &missing)

	cases := []struct {
		name      string
		input     []models.Comment
		wantRoots []primitive.ObjectID
		check     func(t *testing.T, roots []*Node)
	}{
		{
			name:      "empty_input",
			input:     nil,
			wantRoots: []primitive.ObjectID{},
		},
		{
			name:      "single_comment",
			input:     []models.Comment{root},
			wantRoots: []primitive.ObjectID{root.ID},
			check: func(t *testing.T, roots []*Node) {
				assert.Empty(t, roots[0].Children)
			},
		},
		{
			name:      "replies_sorted_at_every_level",
			input:     []models.Comment{nested, reply, root, authorReply},
			wantRoots: []primitive.ObjectID{root.ID},
			check: func(t *testing.T, roots []*Node) {
				require.Len(t, roots[0].Children, 2)
				assert.Equal(t, []primitive.ObjectID{authorReply.ID, reply.ID}, ids(roots[0].Children))
				assert.Equal(t, []primitive.ObjectID{nested.ID}, ids(roots[0].Children[1].Children))
			},
		},
		{
			name:      "orphan_becomes_root",
			input:     []models.Comment{root, orphan},
			wantRoots: []primitive.ObjectID{orphan.ID, root.ID},
		},
		{
			name: "self_parent_becomes_root",
			input: func() []models.Comment {
				c := comment(2, false, 1, nil)
				c.ParentID = &c.ID
				return []models.Comment{c}
			}(),
			check: func(t *testing.T, roots []*Node) {
				require.Len(t, roots, 1)
				assert.Empty(t, roots[0].Children)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			roots := Build(tc.input, blogAuthor)
			if tc.wantRoots != nil {
				assert.Equal(t, tc.wantRoots, ids(roots))
			}
			if tc.check != nil {
				tc.check(t, roots)
			}
			assert.Equal(t, len(tc.input), Count(roots))
		})
	}
}

func TestBuild_CycleIsBrokenWithoutLosingComments(t *testing.T) {
	a := comment(2, false, 1, nil)
	b := comment(3, false, 2, &a.ID)
	a.ParentID = &b.ID

	roots := Build([]models.Comment{a, b}, blogAuthor)

	require.Len(t, roots, 1)
	assert.Equal(t, a.ID, roots[0].ID)
	assert.Equal(t, []primitive.ObjectID{b.ID}, ids(roots[0].Children))
	assert.Equal(t, 2, Count(roots))
}

func TestBuild_EveryCommentAppearsOnce(t *testing.T) {
	var input []models.Comment
	var parents []primitive.ObjectID
	for i := 0; i < 50; i++ {
		var parent *primitive.ObjectID
		switch {
		case i%7 == 0:
			ghost := primitive.NewObjectID()
			parent = &ghost
		case i%3 != 0 && len(parents) > 0:
			p := parents[(i*5)%len(parents)]
			parent = &p
		}
		c := comment(uint(i%4+1), i%11 == 0, i, parent)
		input = append(input, c)
		parents = append(parents, c.ID)
	}

	roots := Build(input, blogAuthor)

	seen := make(map[primitive.ObjectID]int)
	Walk(roots, func(n *Node) { seen[n.ID]++ })
	assert.Len(t, seen, len(input))
	for id, n := range seen {
		assert.Equal(t, 1, n, "comment %s seen %d times", id.Hex(), n)
	}
}

func TestBuild_Idempotent(t *testing.T) {
	root := comment(2, false, 1, nil)
	pinned := comment(3, true, 2, nil)
	same := comment(4, false, 1, nil)
	reply := comment(blogAuthor, false, 5, &root.ID)
	input := []models.Comment{root, pinned, same, reply}

	first := Build(input, blogAuthor)
	second := Build(input, blogAuthor)

	assert.Equal(t, first, second)
	// equal keys keep input order
	assert.Equal(t, []primitive.ObjectID{pinned.ID, root.ID, same.ID}, ids(first))
}
