package slug

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"How do you handle steep driveways for guests?": "how-do-you-handle-steep-driveways-for-guests",
		"  Hot-tub   maintenance!!  ":                   "hot-tub-maintenance",
		"Cleaning fees in Québec (2024)":                "cleaning-fees-in-quebec-2024",
		"What's the guest's best check-in?":             "whats-the-guests-best-check-in",
		"ＦＵＬＬ width":                                   "full-width",
		"???":                                           Fallback,
		"":                                              Fallback,
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "input %q", in)
	}
}

func TestSlugify_TruncatesOnWordBoundary(t *testing.T) {
	title := strings.Repeat("longword ", 20)
	got := Slugify(title)
	assert.LessOrEqual(t, len(got), MaxLen)
	assert.False(t, strings.HasSuffix(got, "-"))
	assert.True(t, strings.HasPrefix(got, "longword-longword"))
	for _, part := range strings.Split(got, "-") {
		assert.Equal(t, "longword", part)
	}
}

func TestSlugify_Concurrent(t *testing.T) {
	const title = "Ça fait déjà très élégant, café crème brûlée pour les invités?"
	want := Slugify(title)
	require.Equal(t, "ca-fait-deja-tres-elegant-cafe-creme-brulee-pour-les-invites", want)

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				if got := Slugify(title); got != want {
					errs <- got
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for got := range errs {
		t.Errorf("concurrent Slugify = %q, want %q", got, want)
	}
}
