package env

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dhamidi/dew/artifact"
	"github.com/dhamidi/dew/java"
	"github.com/dhamidi/dew/pom"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const libCoordinates = "com.example:lib:1.0"

// jar builds an archive holding a compiled class for every source.
func jar(t *testing.T, sources ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("META-INF/")
	require.NoError(t, err)
	w, err := zw.Create("META-INF/MANIFEST.MF")
	require.NoError(t, err)
	_, err = w.Write([]byte("Manifest-Version: 1.0\n"))
	require.NoError(t, err)

	for _, src := range sources {
		models, err := java.ClassModelsFromSource([]byte(src))
		require.NoError(t, err)
		local := java.Classes{}
		local.Add(models...)
		idx := java.Chain{local, DefaultPlatform()}
		for _, m := range models {
			cf, err := java.ClassFile(m, idx, nil)
			require.NoError(t, err)
			data, err := cf.Bytes()
			require.NoError(t, err)
			w, err := zw.Create(m.BinaryName + ".class")
			require.NoError(t, err)
			_, err = w.Write(data)
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

type fakeFetcher struct {
	mu    sync.Mutex
	jars  map[string][]byte
	calls atomic.Int32
	gate  chan struct{}
}

func (f *fakeFetcher) FetchJar(ctx context.Context, c pom.Coordinates) ([]byte, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.jars[c.String()]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func newEnv(t *testing.T, f *fakeFetcher, classpath ...string) *Environment {
	t.Helper()
	return New(WithArchiveCache(NewArchiveCache(f)), WithClasspath(classpath...))
}

func TestCreateUnit(t *testing.T) {
	e := New(WithClasspath())
	u, err := e.CreateUnit(`<button onclick="run('${fqn}')">`, `package x.y.z;
// a comment
public class X { }`)
	require.NoError(t, err)
	assert.Equal(t, "x.y.z", u.Package)
	assert.Equal(t, "X", u.Class)
	assert.Equal(t, "x/y/z/X.class", u.MainPath())
	assert.Equal(t, "x/y/z/X.java", u.SourcePath())
	assert.Equal(t, "x/y/z/index.html", u.SideDocumentPath())
	assert.Equal(t, `<button onclick="run('x.y.z.X')">`, u.Page())
	assert.Same(t, e, u.Env())
	assert.NotZero(t, u.Fingerprint)
}

func TestCreateUnitMalformed(t *testing.T) {
	e := New(WithClasspath())
	tests := []struct {
		name, source, message string
	}{
		{"no package", "class X {}", "Can't find package declaration in the java file"},
		{"no type", "package x;\n", "Can't find class declaration in the java file"},
		{"empty", "", "Can't find package declaration in the java file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.CreateUnit("", tt.source)
			var malformed *MalformedUnitError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, tt.message, malformed.Message)
		})
	}
}

func TestScanNamesFindsFirstType(t *testing.T) {
	pkg, class, err := ScanNames("package a.b ;\ninterface Shape {}\nclass Circle implements Shape {}")
	require.NoError(t, err)
	assert.Equal(t, "a.b", pkg)
	assert.Equal(t, "Shape", class)

	_, class, err = ScanNames("package a;\npublic record Point(int x) {}")
	require.NoError(t, err)
	assert.Equal(t, "Point", class)
}

func TestAddDependencyIsLazy(t *testing.T) {
	f := &fakeFetcher{jars: map[string][]byte{}}
	e := newEnv(t, f)
	require.NoError(t, e.AddDependency(libCoordinates))
	require.NoError(t, e.AddDependency(libCoordinates))
	assert.Equal(t, []string{libCoordinates}, e.Dependencies())
	assert.Zero(t, f.calls.Load())

	assert.Error(t, e.AddDependency("not-a-coordinate"))
}

func TestDefaultClasspath(t *testing.T) {
	e := New(WithArchiveCache(NewArchiveCache(&fakeFetcher{})))
	assert.Equal(t, []string{DefaultClasspath}, e.Dependencies())
}

func TestListResources(t *testing.T) {
	f := &fakeFetcher{jars: map[string][]byte{
		libCoordinates: jar(t,
			"package com.example; public class Greeter { public static class Inner {} }",
			"package com.example.sub; class Hidden {}",
			"package java.lang; public class Extra {}",
		),
	}}
	e := newEnv(t, f, libCoordinates)
	ctx := context.Background()

	got, err := e.ListResources(ctx, "com/example")
	require.NoError(t, err)
	var paths []string
	for _, r := range got {
		paths = append(paths, r.Path)
		assert.Equal(t, OriginArchive, r.Origin)
		assert.Equal(t, libCoordinates, r.Source)
	}
	assert.Equal(t, []string{"com/example/Greeter$Inner.class", "com/example/Greeter.class"}, paths)

	data, err := got[1].Open()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xca, 0xfe, 0xba, 0xbe}, data[:4])

	lang, err := e.ListResources(ctx, "/java/lang/")
	require.NoError(t, err)
	require.NotEmpty(t, lang)
	assert.Equal(t, OriginPlatform, lang[0].Origin)
	last := lang[len(lang)-1]
	assert.Equal(t, "java/lang/Extra.class", last.Path)
	assert.Equal(t, OriginArchive, last.Origin)

	object := findResource(lang, "java/lang/Object.class")
	require.NotNil(t, object)
	data, err = object.Open()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xca, 0xfe, 0xba, 0xbe}, data[:4])

	assert.EqualValues(t, 1, f.calls.Load(), "archive fetched once")
}

func findResource(rs []Resource, path string) *Resource {
	for i := range rs {
		if rs[i].Path == path {
			return &rs[i]
		}
	}
	return nil
}

func TestListResourcesIncludesGenerated(t *testing.T) {
	e := newEnv(t, &fakeFetcher{})
	e.Publish([]artifact.Entry{
		{Path: "x/y/X.class", Role: artifact.Class, Content: []byte{1}},
		{Path: "x/y/X.java", Role: artifact.GeneratedSource, Content: []byte("class X {}")},
	})
	got, err := e.ListResources(context.Background(), "x/y")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, OriginGenerated, got[0].Origin)
	assert.Equal(t, "X.class", got[0].Name())

	e.Publish([]artifact.Entry{{Path: "x/y/Y.class", Role: artifact.Class, Content: []byte{2}}})
	got, err = e.ListResources(context.Background(), "x/y")
	require.NoError(t, err)
	assert.Len(t, got, 2, "generated classes are not memoized")
	assert.Len(t, e.Artifacts(artifact.GeneratedSource), 1)
}

func TestListResourcesFetchFailure(t *testing.T) {
	f := &fakeFetcher{jars: map[string][]byte{}}
	e := newEnv(t, f, libCoordinates)

	_, err := e.ListResources(context.Background(), "com/example")
	var fetchErr *ArchiveFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, libCoordinates, fetchErr.Coordinates)

	f.mu.Lock()
	f.jars[libCoordinates] = jar(t, "package com.example; public class Greeter {}")
	f.mu.Unlock()

	got, err := e.ListResources(context.Background(), "com/example")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.EqualValues(t, 2, f.calls.Load(), "failures are not cached")
}

func TestListResourcesCancelled(t *testing.T) {
	f := &fakeFetcher{jars: map[string][]byte{}}
	e := newEnv(t, f, libCoordinates)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.ListResources(ctx, "com/example")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.calls.Load())
}

func TestArchiveCacheCoalescesFetches(t *testing.T) {
	f := &fakeFetcher{
		jars: map[string][]byte{libCoordinates: jar(t, "package com.example; public class Greeter {}")},
		gate: make(chan struct{}),
	}
	cache := NewArchiveCache(f)

	var wg sync.WaitGroup
	archives := make([]*Archive, 8)
	for i := range archives {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := cache.Get(context.Background(), libCoordinates)
			assert.NoError(t, err)
			archives[i] = a
		}(i)
	}
	require.Eventually(t, func() bool { return f.calls.Load() > 0 }, time.Second, time.Millisecond)
	close(f.gate)
	wg.Wait()

	assert.Equal(t, 1, cache.Fetches())
	for _, a := range archives {
		assert.Same(t, archives[0], a)
	}
}

func TestArchiveCacheCancelledWaiter(t *testing.T) {
	f := &fakeFetcher{
		jars: map[string][]byte{libCoordinates: jar(t, "package com.example; public class Greeter {}")},
		gate: make(chan struct{}),
	}
	cache := NewArchiveCache(f)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := cache.Get(ctx, libCoordinates)
		first <- err
	}()
	require.Eventually(t, func() bool { return f.calls.Load() > 0 }, time.Second, time.Millisecond)

	second := make(chan *Archive, 1)
	go func() {
		a, err := cache.Get(context.Background(), libCoordinates)
		assert.NoError(t, err)
		second <- a
	}()

	cancel()
	err := <-first
	var fetchErr *ArchiveFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.ErrorIs(t, err, context.Canceled)

	close(f.gate)
	a := <-second
	require.NotNil(t, a)
	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 1, cache.Fetches())
}

func TestArchiveResourceMissingEntry(t *testing.T) {
	a, err := OpenArchive(libCoordinates, jar(t, "package com.example; public class Greeter {}"))
	require.NoError(t, err)

	r := archiveResource(a, "com/example/Greeter.class")
	assert.Equal(t, libCoordinates, r.Source)
	data, err := r.Open()
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	_, err = archiveResource(a, "com/example/Gone.class").Open()
	assert.ErrorContains(t, err, "com/example/Gone.class not found")
}

func TestIndexSkipsFailedArchives(t *testing.T) {
	f := &fakeFetcher{jars: map[string][]byte{
		libCoordinates: jar(t, "package com.example; public class Greeter { public void greet() {} }"),
	}}
	e := newEnv(t, f, libCoordinates, "com.example:missing:1.0")

	idx, err := e.Index(context.Background())
	var fetchErr *ArchiveFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "com.example:missing:1.0", fetchErr.Coordinates)

	greeter := idx.LookupClass("com.example.Greeter")
	require.NotNil(t, greeter)
	assert.Len(t, greeter.MethodsNamed("greet"), 1)
	assert.NotNil(t, idx.LookupClass("java.lang.String"))
	assert.Contains(t, e.Packages(context.Background()), "com.example")
}

func TestArchiveNestedLookup(t *testing.T) {
	a, err := OpenArchive(libCoordinates, jar(t, "package com.example; public class Outer { public static class Inner {} }"))
	require.NoError(t, err)
	assert.Equal(t, 2, a.Len())

	inner := a.LookupClass("com.example.Outer.Inner")
	require.NotNil(t, inner)
	assert.Equal(t, "com.example.Outer", inner.Outer)

	classes := a.ClassesInPackage("com.example")
	require.Len(t, classes, 1)
	assert.Equal(t, "com.example.Outer", classes[0].Name)
}

func TestPlatformCatalog(t *testing.T) {
	p := DefaultPlatform()
	for _, name := range []string{"java.lang.Object", "java.lang.String", "java.io.PrintStream", "java.util.List", "java.util.Map.Entry"} {
		assert.NotNil(t, p.LookupClass(name), name)
	}
	assert.Contains(t, p.Packages(), "java.util.function")
	out := p.LookupClass("java.lang.System").Field("out")
	require.NotNil(t, out)
	assert.Equal(t, "java.io.PrintStream", out.Type.Name)
}
