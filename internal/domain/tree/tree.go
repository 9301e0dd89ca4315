// Package tree models the folder view of uploaded documents.
package tree

import (
	"errors"
	"fmt"
)

// RootName is the name of every tree root.
const RootName = "My Documents"

// Kind tells folders from files.
type Kind string

const (
	KindFolder Kind = "folder"
	KindFile   Kind = "file"
)

// Node is one folder or file. Files reference an indexed document by FileID.
type Node struct {
	Name     string `json:"name"`
	Type     Kind   `json:"type"`
	FileID   string `json:"file_id,omitempty"`
	Children []Node `json:"children,omitempty"`
}

// Folder builds a folder node.
func Folder(name string, children ...Node) Node {
	return Node{Name: name, Type: KindFolder, Children: children}
}

// File builds a file node.
func File(name, fileID string) Node {
	return Node{Name: name, Type: KindFile, FileID: fileID}
}

// Validate checks that every node is named, typed and that only folders have
// children and only files carry a FileID.
func (n Node) Validate() error {
	if n.Name == "" {
		return errors.New("node without name")
	}
	switch n.Type {
	case KindFolder:
		if n.FileID != "" {
			return fmt.Errorf("folder %q has a file_id", n.Name)
		}
		for _, c := range n.Children {
			if err := c.Validate(); err != nil {
				return fmt.Errorf("%s/%w", n.Name, err)
			}
		}
	case KindFile:
		if len(n.Children) > 0 {
			return fmt.Errorf("file %q has children", n.Name)
		}
	default:
		return fmt.Errorf("node %q has type %q", n.Name, n.Type)
	}
	return nil
}

// Files returns the FileIDs of every file below n, depth first.
func (n Node) Files() []string {
	if n.Type == KindFile {
		return []string{n.FileID}
	}
	var ids []string
	for _, c := range n.Children {
		ids = append(ids, c.Files()...)
	}
	return ids
}
