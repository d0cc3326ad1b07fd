package main

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// commonlog.Configure starts a buffered writer that lives for the process.
	goleak.VerifyTestMain(m, goleak.IgnoreAnyFunction("github.com/tliron/kutil/util.(*BufferedWriter).run"))
}

const hello = `package x.y.z;

public class Hello {
    public static void main(String[] args) {
        System.out.println("Hello");
    }
}
`

const broken = `package p;
class Bad {
    void m() {
        int i = 1
    }
}
`

// workspace is a temporary directory with a dew.toml that keeps every
// archive lookup inside it.
type workspace struct {
	t      *testing.T
	dir    string
	config string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	for _, k := range []string{"DEW_REPOSITORY", "DEW_LOCAL_REPOSITORY", "DEW_ADDR"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	config := filepath.Join(dir, "dew.toml")
	content := fmt.Sprintf("repository = \"http://127.0.0.1:1\"\nlocal-repository = %q\nclasspath = []\n",
		filepath.ToSlash(filepath.Join(dir, "m2")))
	require.NoError(t, os.WriteFile(config, []byte(content), 0o644))
	return &workspace{t: t, dir: dir, config: config}
}

func (ws *workspace) write(name, content string) string {
	ws.t.Helper()
	path := filepath.Join(ws.dir, filepath.FromSlash(name))
	require.NoError(ws.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(ws.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (ws *workspace) run(args ...string) (string, error) {
	ws.t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", ws.config}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCompileWritesClasses(t *testing.T) {
	ws := newWorkspace(t)
	ws.write("src/x/y/z/Hello.java", hello)
	out := filepath.Join(ws.dir, "out")

	_, err := ws.run("compile", filepath.Join(ws.dir, "src"), "-o", out)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, "x", "y", "z", "Hello.class"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xca, 0xfe, 0xba, 0xbe}, data[:4])
}

func TestCompileReportsErrors(t *testing.T) {
	ws := newWorkspace(t)
	path := ws.write("Bad.java", broken)

	output, err := ws.run("compile", path, "-o", filepath.Join(ws.dir, "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 files failed")
	assert.Contains(t, output, path+":4:")
	assert.Contains(t, output, "ERROR")
}

func TestCheck(t *testing.T) {
	ws := newWorkspace(t)
	bad := ws.write("src/p/Bad.java", broken)
	ws.write("src/x/y/z/Hello.java", hello)

	output, err := ws.run("check", "--no-color", filepath.Join(ws.dir, "src"))
	require.Error(t, err)
	lines := strings.Split(strings.TrimSpace(output), "\n")
	require.NotEmpty(t, lines)
	assert.Regexp(t, `^`+regexpQuote(bad)+`:4:\d+: ERROR: ';' expected`, lines[0])
	assert.NotContains(t, output, "Hello.java")

	output, err = ws.run("check", "--no-color", "--include", "x/**/*.java", filepath.Join(ws.dir, "src"))
	require.NoError(t, err)
	assert.Empty(t, output)
}

func regexpQuote(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func TestComplete(t *testing.T) {
	ws := newWorkspace(t)
	src := "package p;\nclass A { void m() { System.out.pr } }\n"
	path := ws.write("A.java", src)
	offset := strings.Index(src, "System.out.pr") + len("System.out.pr")

	output, err := ws.run("complete", fmt.Sprintf("%s:%d", path, offset))
	require.NoError(t, err)
	assert.Equal(t, "print\nprintf\nprintln\n", output)

	_, err = ws.run("complete", path+":100000")
	assert.Error(t, err)
}

func TestParseLocation(t *testing.T) {
	cases := []struct {
		loc    string
		path   string
		offset int
		ok     bool
	}{
		{"A.java:12", "A.java", 12, true},
		{"C:/src/A.java:0", "C:/src/A.java", 0, true},
		{"A.java", "", 0, false},
		{"A.java:x", "", 0, false},
		{"A.java:-1", "", 0, false},
		{":3", "", 0, false},
	}
	for _, tc := range cases {
		path, offset, err := parseLocation(tc.loc)
		if !tc.ok {
			assert.Error(t, err, tc.loc)
			continue
		}
		require.NoError(t, err, tc.loc)
		assert.Equal(t, tc.path, path)
		assert.Equal(t, tc.offset, offset)
	}
}

func TestClasspath(t *testing.T) {
	ws := newWorkspace(t)
	ws.write("src/x/y/z/Hello.java", hello)
	out := filepath.Join(ws.dir, "out")
	_, err := ws.run("compile", filepath.Join(ws.dir, "src"), "-o", out)
	require.NoError(t, err)

	class, err := os.ReadFile(filepath.Join(out, "x", "y", "z", "Hello.class"))
	require.NoError(t, err)
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("x/y/z/Hello.class")
	require.NoError(t, err)
	_, err = w.Write(class)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	ws.write("m2/com/example/lib/1.0/lib-1.0.jar", buf.String())

	output, err := ws.run("classpath", "com.example:lib:1.0")
	require.NoError(t, err)
	assert.Equal(t, "x.y.z\n", output)

	output, err = ws.run("classpath", "com.example:lib:1.0", "x/y/z")
	require.NoError(t, err)
	assert.Equal(t, "x/y/z/Hello.class\tarchive\n", output)

	_, err = ws.run("classpath", "com.example:lib")
	assert.Error(t, err)
}

func TestSourceFiles(t *testing.T) {
	ws := newWorkspace(t)
	a := ws.write("src/a/A.java", "")
	b := ws.write("src/B.java", "")
	ws.write("src/.hidden/C.java", "")
	ws.write("src/notes.txt", "")

	files, err := sourceFiles([]string{filepath.Join(ws.dir, "src"), b}, "**/*.java")
	require.NoError(t, err)
	assert.Equal(t, []string{b, a}, files)

	_, err = sourceFiles([]string{filepath.Join(ws.dir, "missing")}, "**/*.java")
	assert.Error(t, err)
}
