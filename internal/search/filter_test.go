package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type post struct {
	Title string
	Body  string
}

func postFields(p post) []string { return []string{p.Title, p.Body} }

var posts = []post{
	{Title: "How do you handle steep driveways for guests?", Body: "Winter check-ins are tricky"},
	{Title: "Best hot tub chemicals", Body: "Weekly maintenance routine"},
	{Title: "Cleaning fees in Québec", Body: "Turnover pricing"},
}

func TestFilter_EmptyQueryReturnsCopyInOrder(t *testing.T) {
	out := Filter(posts, "   ", postFields)
	assert.Equal(t, posts, out)
	out[0].Title = "changed"
	assert.NotEqual(t, "changed", posts[0].Title, "filter must not alias the input")
}

func TestFilter_AllTermsMustMatch(t *testing.T) {
	out := Filter(posts, "HOT tub", postFields)
	assert.Equal(t, []post{posts[1]}, out)

	assert.Empty(t, Filter(posts, "hot driveways", postFields))
}

func TestFilter_FoldsAccentsAndToleratesOneTypo(t *testing.T) {
	assert.Equal(t, []post{posts[2]}, Filter(posts, "quebec", postFields))
	assert.Empty(t, Filter(posts, "drivewyas", postFields), "a transposition costs two edits")
	assert.Equal(t, []post{posts[0]}, Filter(posts, "driveway", postFields))
	assert.Equal(t, []post{posts[1]}, Filter(posts, "chemicels", postFields))
	assert.Empty(t, Filter(posts, "tob", postFields), "short terms are never fuzzy")
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("", "anything"))
	assert.True(t, Matches("winter", "Winter check-ins"))
	assert.False(t, Matches("summer", "Winter check-ins"))
}
