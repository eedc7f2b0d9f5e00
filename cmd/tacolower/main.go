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

// Command tacolower reads a textual index-notation file and a per-tensor
// format file, builds the notation tree, runs graph+lower, and prints the
// resulting loopir.Func. It is the thinnest possible front door onto the
// lowering engine - no MTX/HB parsing, no coordinate packing, no device
// backend.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/gx-org/sparsetaco/build/module"
	"github.com/gx-org/sparsetaco/lower"
	"github.com/gx-org/sparsetaco/notation"
	"github.com/gx-org/sparsetaco/notation/parse"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "tacolower:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		formatPath = flag.String("formats", "", "path to the per-tensor format file")
		compute    = flag.Bool("compute", true, "emit value computation code")
		assemble   = flag.Bool("assemble", true, "emit index-structure assembly code")
		accumulate = flag.Bool("accumulate", false, "force a compound += store at the innermost level")
		print      = flag.Bool("print", false, "set the Print property (does not change the output)")
	)
	flag.Parse()
	if flag.NArg() != 1 {
		return errors.Errorf("usage: tacolower -formats=<path> <notation-file>")
	}
	notationPath, err := resolvePath(flag.Arg(0))
	if err != nil {
		return err
	}
	if *formatPath == "" {
		return errors.Errorf("-formats is required")
	}
	fp, err := resolvePath(*formatPath)
	if err != nil {
		return err
	}

	env, order, err := readFormats(fp)
	if err != nil {
		return errors.Wrapf(err, "reading format file %s", fp)
	}

	src, err := os.ReadFile(notationPath)
	if err != nil {
		return errors.Wrapf(err, "reading notation file %s", notationPath)
	}
	stmt, err := parse.Parse(strings.TrimSpace(string(src)), env)
	if err != nil {
		return errors.Wrapf(err, "parsing %s", notationPath)
	}

	var operands []*notation.TensorVar
	for _, name := range order {
		t := env.Tensors[name]
		if t == stmt.ResultTensor {
			continue
		}
		operands = append(operands, t)
	}

	fn, err := lower.Drive(stmt.ResultTensor.Name+"_kernel", stmt, operands, lower.Properties{
		Compute:    *compute,
		Assemble:   *assemble,
		Accumulate: *accumulate,
		Print:      *print,
	})
	if err != nil {
		return err
	}
	fmt.Println(fn.String())
	return nil
}

// resolvePath resolves a relative path against the nearest enclosing
// module root (build/module.New); absolute paths pass through unchanged.
func resolvePath(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	mod, err := module.New(wd)
	if err != nil {
		// Not inside a Go module (e.g. run from an extracted tarball):
		// fall back to the working directory.
		return filepath.Join(wd, p), nil
	}
	return mod.OSPath(p), nil
}

// readFormats parses the format file: one line per tensor,
//
//	name: elemkind kind,dim kind,dim ...
//
// e.g. "A: float64 dense,0 compressed,1" for a CSR matrix. Returns an Env
// with every tensor registered, and the tensor names in file order (the
// result tensor is whichever name notation.Assign later resolves from the
// parsed statement; the caller filters it out of the operand list).
func readFormats(path string) (*parse.Env, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	env := parse.NewEnv()
	var order []string
	scan := bufio.NewScanner(f)
	lineNo := 0
	for scan.Scan() {
		lineNo++
		line := strings.TrimSpace(scan.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, rest, ok := strings.Cut(line, ":")
		if !ok {
			return nil, nil, errors.Errorf("line %d: expected 'name: elemkind level,dim ...'", lineNo)
		}
		name = strings.TrimSpace(name)
		fields := strings.Fields(rest)
		if len(fields) < 1 {
			return nil, nil, errors.Errorf("line %d: missing element kind", lineNo)
		}
		elem, err := parseKind(fields[0])
		if err != nil {
			return nil, nil, errors.Wrapf(err, "line %d", lineNo)
		}
		var levels []notation.Level
		for _, tok := range fields[1:] {
			lvl, err := parseLevel(tok)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "line %d", lineNo)
			}
			levels = append(levels, lvl)
		}
		t := notation.NewTensorVar(name, elem, notation.NewFormat(levels...))
		env.AddTensor(t)
		order = append(order, name)
	}
	if err := scan.Err(); err != nil {
		return nil, nil, err
	}
	return env, order, nil
}

func parseKind(s string) (notation.Kind, error) {
	switch s {
	case "float32":
		return notation.Float32, nil
	case "float64":
		return notation.Float64, nil
	case "int32":
		return notation.Int32, nil
	case "int64":
		return notation.Int64, nil
	default:
		return 0, errors.Errorf("unknown element kind %q", s)
	}
}

func parseLevel(tok string) (notation.Level, error) {
	kindStr, dimStr, ok := strings.Cut(tok, ",")
	if !ok {
		return notation.Level{}, errors.Errorf("level %q: expected 'kind,dim'", tok)
	}
	dim, err := strconv.Atoi(dimStr)
	if err != nil {
		return notation.Level{}, errors.Errorf("level %q: invalid dimension: %v", tok, err)
	}
	switch kindStr {
	case "dense":
		return notation.Level{Kind: notation.Dense, Dim: dim}, nil
	case "compressed":
		return notation.Level{Kind: notation.Compressed, Dim: dim}, nil
	case "fixed":
		return notation.Level{Kind: notation.Fixed, Dim: dim}, nil
	default:
		return notation.Level{}, errors.Errorf("level %q: unknown level kind %q", tok, kindStr)
	}
}
