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

package loopir

import (
	"fmt"
	"strings"

	gxfmt "github.com/gx-org/sparsetaco/base/fmt"
)

// String renders fn as pseudocode. Used by cmd/tacolower to print the
// lowered function.
func (fn *Func) String() string {
	var s strings.Builder
	fmt.Fprintf(&s, "func %s(", fn.Name)
	for i, p := range fn.Params {
		if i > 0 {
			s.WriteString(", ")
		}
		s.WriteString(p.Name)
	}
	s.WriteString(") (")
	for i, r := range fn.Results {
		if i > 0 {
			s.WriteString(", ")
		}
		s.WriteString(r.Name)
	}
	s.WriteString(") {\n")
	s.WriteString(gxfmt.BlockIndent(fn.Body.String()))
	s.WriteString("}\n")
	return s.String()
}

func (b *Block) String() string {
	var s strings.Builder
	for _, st := range b.Stmts {
		s.WriteString(stmtString(st))
		s.WriteString("\n")
	}
	return s.String()
}

func stmtString(st Stmt) string {
	switch st := st.(type) {
	case *VarDecl:
		if st.Init == nil {
			return fmt.Sprintf("var %s", st.Var.Name)
		}
		return fmt.Sprintf("var %s = %s", st.Var.Name, st.Init)
	case *Assign:
		op := "="
		if st.Compound {
			op = "+="
		}
		return fmt.Sprintf("%s %s %s", st.Lhs, op, st.Rhs)
	case *ExprStmt:
		return st.X.String()
	case *For:
		head := fmt.Sprintf("for %s := %s; %s < %s; %s++", st.Var, st.Begin, st.Var, st.End, st.Var)
		if st.Parallelism != Serial {
			head = fmt.Sprintf("%s // %s", head, st.Parallelism)
		}
		return head + " {\n" + gxfmt.BlockIndent(st.Body.String()) + "}"
	case *While:
		return fmt.Sprintf("while %s {\n%s}", st.Cond, gxfmt.BlockIndent(st.Body.String()))
	case *If:
		s := fmt.Sprintf("if %s {\n%s}", st.Cond, gxfmt.BlockIndent(st.Then.String()))
		if !st.Else.Empty() {
			s += fmt.Sprintf(" else {\n%s}", gxfmt.BlockIndent(st.Else.String()))
		}
		return s
	case *Switch:
		var s strings.Builder
		fmt.Fprintf(&s, "switch %s {\n", st.Tag)
		for _, c := range st.Cases {
			if c.Value == nil {
				s.WriteString("default:\n")
			} else {
				fmt.Fprintf(&s, "case %s:\n", c.Value)
			}
			s.WriteString(gxfmt.BlockIndent(c.Body.String()))
		}
		s.WriteString("}")
		return s.String()
	case *Return:
		parts := make([]string, len(st.Values))
		for i, v := range st.Values {
			parts[i] = v.String()
		}
		return "return " + strings.Join(parts, ", ")
	case *Block:
		return st.String()
	default:
		return fmt.Sprintf("<unknown stmt %T>", st)
	}
}
