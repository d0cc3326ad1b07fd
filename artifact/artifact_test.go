package artifact

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishAndList(t *testing.T) {
	s := NewStore()
	s.Publish([]Entry{
		{Path: "x/y/X.class", Role: Class, Content: []byte{0xCA, 0xFE}},
		{Path: "x/y/X$In.class", Role: Class, Content: []byte{1}},
		{Path: "x/y/z/Deep.class", Role: Class, Content: []byte{2}},
		{Path: "x/y/X.java", Role: GeneratedSource, Content: []byte("class X {}")},
	})

	classes := s.Artifacts(Class)
	assert.Len(t, classes, 3)
	assert.Equal(t, []byte{0xCA, 0xFE}, classes["x/y/X.class"])

	listed := s.List(Class, "x/y/")
	require.Len(t, listed, 2)
	assert.Equal(t, "x/y/X$In.class", listed[0].Path)
	assert.Equal(t, "X.class", listed[1].Name())
	assert.NotZero(t, listed[1].Digest)

	assert.Len(t, s.Artifacts(GeneratedSource), 1)
}

func TestRepublishHidesButKeeps(t *testing.T) {
	s := NewStore()
	s.Publish([]Entry{{Path: "A.class", Role: Class, Content: []byte("old")}})
	s.Publish([]Entry{{Path: "A.class", Role: Class, Content: []byte("new")}})

	assert.Equal(t, []byte("new"), s.Artifacts(Class)["A.class"])
	assert.Equal(t, 2, s.Len(Class), "old entry is hidden, not removed")
}

func TestSoftDelete(t *testing.T) {
	s := NewStore()
	s.Publish([]Entry{
		{Path: "A.class", Role: Class, Content: []byte("a")},
		{Path: "B.class", Role: Class, Content: []byte("b")},
	})

	assert.True(t, s.Delete(Class, "A.class"))
	assert.False(t, s.Delete(Class, "A.class"))
	_, ok := s.Get(Class, "A.class")
	assert.False(t, ok)
	assert.Len(t, s.Artifacts(Class), 1)

	s.Clear(Class)
	assert.Empty(t, s.Artifacts(Class))
	assert.Equal(t, 2, s.Len(Class))
}

func TestPublishedContentIsCopied(t *testing.T) {
	s := NewStore()
	buf := []byte("abc")
	s.Publish([]Entry{{Path: "A.class", Role: Class, Content: buf}})
	buf[0] = 'z'
	a, ok := s.Get(Class, "A.class")
	require.True(t, ok)
	assert.Equal(t, "abc", string(a.Content))
}

func TestConcurrentReadersSeeWholeBatches(t *testing.T) {
	s := NewStore()
	const batches = 50
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < batches; i++ {
			s.Publish([]Entry{
				{Path: "p/A.class", Role: Class, Content: []byte(fmt.Sprint(i))},
				{Path: "p/B.class", Role: Class, Content: []byte(fmt.Sprint(i))},
			})
		}
	}()
	for i := 0; i < batches; i++ {
		got := s.Artifacts(Class)
		if len(got) == 0 {
			continue
		}
		require.Len(t, got, 2)
		assert.Equal(t, got["p/A.class"], got["p/B.class"])
	}
	wg.Wait()
}
