package env

import (
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// MalformedUnitError rejects source text whose package or type
// declaration cannot be found by a lexical scan.
type MalformedUnitError struct {
	Message string
}

func (e *MalformedUnitError) Error() string {
	return e.Message
}

const (
	msgNoPackage = "Can't find package declaration in the java file"
	msgNoClass   = "Can't find class declaration in the java file"

	// FQNPlaceholder in the side document is replaced by the quoted name
	// of the unit's main class.
	FQNPlaceholder = "'${fqn}'"
)

var (
	packagePattern = regexp.MustCompile(`(?m)\bpackage\s*([\p{L}\p{N}_$.]+)\s*;`)
	typePattern    = regexp.MustCompile(`(?m)\b(?:class|interface|enum|record)\s+([\p{L}\p{N}_$]+)`)
)

// ScanNames finds the package and primary type name of source without
// parsing it.
func ScanNames(source string) (pkg, class string, err error) {
	m := packagePattern.FindStringSubmatch(source)
	if m == nil {
		return "", "", &MalformedUnitError{Message: msgNoPackage}
	}
	pkg = m[1]
	m = typePattern.FindStringSubmatch(source)
	if m == nil {
		return "", "", &MalformedUnitError{Message: msgNoClass}
	}
	return pkg, m[1], nil
}

// Unit is one source file and its side document, as submitted.
type Unit struct {
	Package      string
	Class        string
	Source       string
	SideDocument string
	// Fingerprint identifies the source text in logs.
	Fingerprint uint64

	env *Environment
}

// CreateUnit checks that source names a package and a type and returns
// a unit bound to e.
func (e *Environment) CreateUnit(sideDocument, source string) (*Unit, error) {
	pkg, class, err := ScanNames(source)
	if err != nil {
		log.Debug("malformed unit", "reason", err)
		return nil, err
	}
	u := &Unit{
		Package:      pkg,
		Class:        class,
		Source:       source,
		SideDocument: sideDocument,
		Fingerprint:  xxhash.Sum64String(source),
		env:          e,
	}
	log.Debug("unit created", "class", u.MainClass(), "fingerprint", u.Fingerprint)
	return u, nil
}

func (u *Unit) Env() *Environment {
	return u.env
}

// MainClass is the dotted name of the primary type.
func (u *Unit) MainClass() string {
	return u.Package + "." + u.Class
}

func (u *Unit) folder() string {
	return strings.ReplaceAll(u.Package, ".", "/")
}

// MainPath is the artifact path of the primary type's class file.
func (u *Unit) MainPath() string {
	return u.folder() + "/" + u.Class + ".class"
}

// SourcePath is where the analyzer sees the source file.
func (u *Unit) SourcePath() string {
	return u.folder() + "/" + u.Class + ".java"
}

// SideDocumentPath is where the analyzer sees the side document.
func (u *Unit) SideDocumentPath() string {
	return u.folder() + "/index.html"
}

// Page is the side document with the main class name filled in.
func (u *Unit) Page() string {
	return strings.ReplaceAll(u.SideDocument, FQNPlaceholder, "'"+u.MainClass()+"'")
}
