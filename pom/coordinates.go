// Package pom locates Maven artifacts: it parses coordinates and fetches
// jars from a local repository or a remote one.
package pom

import (
	"fmt"
	"path"
	"strings"
)

// Coordinates identify one archive in a Maven repository.
type Coordinates struct {
	GroupID    string
	ArtifactID string
	Version    string
	Classifier string
}

// ParseCoordinate parses groupId:artifactId:version[:classifier].
func ParseCoordinate(coord string) (Coordinates, error) {
	parts := strings.Split(strings.TrimSpace(coord), ":")
	if len(parts) < 3 || len(parts) > 4 {
		return Coordinates{}, fmt.Errorf("invalid Maven coordinate: %q (expected groupId:artifactId:version[:classifier])", coord)
	}
	for _, p := range parts {
		if p == "" {
			return Coordinates{}, fmt.Errorf("invalid Maven coordinate: %q has an empty element", coord)
		}
	}
	c := Coordinates{GroupID: parts[0], ArtifactID: parts[1], Version: parts[2]}
	if len(parts) == 4 {
		c.Classifier = parts[3]
	}
	return c, nil
}

func (c Coordinates) String() string {
	s := c.GroupID + ":" + c.ArtifactID + ":" + c.Version
	if c.Classifier != "" {
		s += ":" + c.Classifier
	}
	return s
}

// FileName is the jar file name, e.g. emul-0.11-rt.jar.
func (c Coordinates) FileName() string {
	if c.Classifier != "" {
		return fmt.Sprintf("%s-%s-%s.jar", c.ArtifactID, c.Version, c.Classifier)
	}
	return fmt.Sprintf("%s-%s.jar", c.ArtifactID, c.Version)
}

// Path is the repository-relative, slash-separated location of the jar.
func (c Coordinates) Path() string {
	return path.Join(strings.ReplaceAll(c.GroupID, ".", "/"), c.ArtifactID, c.Version, c.FileName())
}
