// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package module resolves the Go module root enclosing a directory, so a
// relative path on the command line can be turned into an absolute one.
package module

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

func findModuleRoot(dir string) (root string) {
	dir = filepath.Clean(dir)
	if dir == "" {
		return ""
	}
	for {
		if fi, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil && !fi.IsDir() {
			return dir
		}
		d := filepath.Dir(dir)
		if d == dir {
			break
		}
		dir = d
	}
	return ""
}

// Module is the Go module enclosing a directory.
type Module struct {
	root string
}

// New returns the module enclosing osPath, found by walking up from osPath
// looking for a go.mod.
func New(osPath string) (*Module, error) {
	modRoot := findModuleRoot(osPath)
	if modRoot == "" {
		return nil, errors.Errorf("directory %q is not a Go module: cannot find go.mod", osPath)
	}
	absModRoot, err := filepath.Abs(modRoot)
	if err != nil {
		return nil, errors.Errorf("invalid path %q: %v", modRoot, modRoot)
	}
	return &Module{root: absModRoot}, nil
}

// OSPath converts a path within the module to a path on the operating system.
func (mod *Module) OSPath(path string) string {
	return strings.Join([]string{
		mod.root,
		path,
	}, "/")
}
