package java

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nestedSource = `package x.y;

public class Outer {
    public static class Nested {
        class Deep {}
    }
    interface Callback {}

    Nested.Deep make() { return null; }
}
`

func modelNamed(t *testing.T, models []*ClassModel, simple string) *ClassModel {
	t.Helper()
	for _, m := range models {
		if m.SimpleName == simple {
			return m
		}
	}
	require.Failf(t, "missing model", "no class %s", simple)
	return nil
}

func TestNestedClassNames(t *testing.T) {
	models, err := ClassModelsFromSource([]byte(nestedSource))
	require.NoError(t, err)
	require.Len(t, models, 4)

	outer := modelNamed(t, models, "Outer")
	nested := modelNamed(t, models, "Nested")
	deep := modelNamed(t, models, "Deep")
	callback := modelNamed(t, models, "Callback")

	assert.Equal(t, "x/y/Outer", outer.BinaryName)
	assert.Equal(t, "x.y.Outer.Nested", nested.Name)
	assert.Equal(t, "x/y/Outer$Nested", nested.BinaryName)
	assert.Equal(t, "x.y.Outer", nested.Outer)
	assert.True(t, nested.IsStatic)
	assert.False(t, nested.IsInner())

	assert.Equal(t, "x/y/Outer$Nested$Deep", deep.BinaryName)
	assert.Equal(t, "x.y.Outer.Nested", deep.Outer)
	assert.True(t, deep.IsInner())

	assert.True(t, callback.IsStatic, "member interfaces are implicitly static")
	assert.True(t, callback.IsAbstract)

	var names []string
	for _, ic := range outer.InnerClasses {
		assert.Equal(t, "x.y.Outer", ic.OuterClass)
		names = append(names, ic.InnerName)
	}
	assert.Equal(t, []string{"Nested", "Callback"}, names)

	var ret string
	for _, m := range outer.Methods {
		if m.Name == "make" {
			ret = m.ReturnType.Name
		}
	}
	assert.Equal(t, "x.y.Outer.Nested.Deep", ret)
}

func TestNestedClassFileRoundTrip(t *testing.T) {
	u := completeUnit(t, nestedSource, platform())
	idx := u.Index()
	deep := modelNamed(t, u.Classes, "Deep")

	cf := roundTrip(t, deep, idx, nil)
	assert.Equal(t, "x/y/Outer$Nested$Deep", cf.ClassName())

	back := ClassModelFromClassFile(cf)
	assert.Equal(t, "x.y.Outer.Nested.Deep", back.Name)
	assert.Equal(t, "x.y.Outer.Nested", back.Outer)
	assert.Equal(t, "Deep", back.SimpleName)
	assert.False(t, back.IsStatic)
	assert.True(t, back.IsInner())

	outer := ClassModelFromClassFile(roundTrip(t, modelNamed(t, u.Classes, "Outer"), idx, nil))
	require.Len(t, outer.InnerClasses, 2)
	assert.Equal(t, "x.y.Outer.Nested", outer.InnerClasses[0].InnerClass)
	assert.True(t, outer.InnerClasses[0].IsStatic)
	assert.Equal(t, "Callback", outer.InnerClasses[1].InnerName)
}
