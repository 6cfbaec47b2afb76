package golang

import (
	"errors"
	"fmt"
	"go/token"
	"strings"

	"github.com/Alia5/progen/internal/codegen/meta"
	"github.com/Alia5/progen/internal/ir"
)

// Build-constraint suffixes the go tool interprets in file names.
var (
	knownOS = map[string]bool{
		"aix": true, "android": true, "darwin": true, "dragonfly": true, "freebsd": true,
		"hurd": true, "illumos": true, "ios": true, "js": true, "linux": true, "nacl": true,
		"netbsd": true, "openbsd": true, "plan9": true, "solaris": true, "wasip1": true,
		"windows": true, "zos": true,
	}
	knownArch = map[string]bool{
		"386": true, "amd64": true, "amd64p32": true, "arm": true, "armbe": true, "arm64": true,
		"arm64be": true, "loong64": true, "mips": true, "mipsle": true, "mips64": true,
		"mips64le": true, "mips64p32": true, "mips64p32le": true, "ppc": true, "ppc64": true,
		"ppc64le": true, "riscv": true, "riscv64": true, "s390": true, "s390x": true,
		"sparc": true, "sparc64": true, "wasm": true,
	}
)

// methodNames are declared on generated types and may not be used as
// field names.
var methodNames = []string{
	"Reset", "Equal", "Clone", "Pack", "Unpack", "Dump", "String",
	"TypeID", "Name", "MaxSize", "Dup", "Run",
	"Serve", "Complete", "Timeout", "TimeoutSeconds", "SetAllFields", "ClearDefaults",
}

// validate rejects schemas whose Go rendering would not compile or would
// be dropped by the go tool.
func validate(md *meta.Metadata) error {
	if !token.IsIdentifier(md.Package) || md.Package == "_" {
		return &GenerationError{Rule: "package", Cause: fmt.Errorf("%q is not a valid package name", md.Package)}
	}

	byName := map[string]meta.Artifact{}
	for _, a := range md.Artifacts {
		byName[a.Name] = a
	}

	pkgNames := newScope("package-level name")
	for _, n := range []string{"MaxTypeID", "TypeIDs", "TypeNames"} {
		pkgNames.claim(n, "definitions")
	}
	files := newScope("file name")
	files.claim(AggregateFile, "definitions")

	for _, a := range md.Artifacts {
		if err := validateArtifact(a, byName); err != nil {
			return err
		}
		if err := claimArtifact(pkgNames, a); err != nil {
			return err
		}
		iface, wire := fileNames(a)
		if err := checkFileName(iface); err != nil {
			return &GenerationError{Name: a.Name, Rule: "file name", Cause: err}
		}
		for _, fn := range []string{iface, wire} {
			if err := files.claim(fn, a.Name); err != nil {
				return &GenerationError{Name: a.Name, Rule: "file name", Cause: err}
			}
		}
	}
	for _, st := range md.States {
		fn := stateFileName(st)
		if err := checkFileName(fn); err != nil {
			return &GenerationError{Name: st.Name, Rule: "file name", Cause: err}
		}
		if err := files.claim(fn, "state "+st.Name); err != nil {
			return &GenerationError{Name: st.Name, Rule: "file name", Cause: err}
		}
	}
	return checkCycles(md.Artifacts, byName)
}

func validateArtifact(a meta.Artifact, byName map[string]meta.Artifact) error {
	name := typeName(a.Name)
	if !token.IsIdentifier(name) || !token.IsExported(name) {
		return &GenerationError{Name: a.Name, Rule: "name", Cause: fmt.Errorf("%q is not a Go identifier", name)}
	}

	members := newScope("member")
	for _, m := range methodNames {
		members.claim(m, "method")
	}
	if a.Kind == ir.RemoteCall {
		for _, m := range []string{"TraceID", "IsServer", "Argument", "Result"} {
			members.claim(m, "envelope")
		}
		for _, side := range []string{a.Argument, a.Result} {
			if err := checkRef(a, "", side, byName); err != nil {
				return err
			}
		}
	}
	if a.Code != nil {
		code := fieldName(a.Code.Name)
		if err := members.claim(code, a.Code.Name); err != nil {
			return &GenerationError{Name: a.Name, Field: a.Code.Name, Rule: "name", Cause: err}
		}
	}
	for _, f := range a.Fields {
		goName := fieldName(f.Name)
		if !token.IsIdentifier(goName) {
			return &GenerationError{Name: a.Name, Field: f.Name, Rule: "name", Cause: fmt.Errorf("%q is not a Go identifier", goName)}
		}
		if err := members.claim(goName, f.Name); err != nil {
			return &GenerationError{Name: a.Name, Field: f.Name, Rule: "name", Cause: err}
		}
		if a.Code != nil {
			for _, m := range []string{"Set" + goName, "Mark" + goName} {
				if err := members.claim(m, f.Name); err != nil {
					return &GenerationError{Name: a.Name, Field: f.Name, Rule: "name", Cause: err}
				}
			}
		}

		var err error
		f.Type.Walk(func(t ir.TypeRef) {
			if err != nil {
				return
			}
			switch {
			case t.Kind == ir.KindMessage:
				err = checkRef(a, f.Name, t.Name, byName)
			case t.Kind == ir.KindContainer && isKeyed(t):
				if k := t.Params[0]; !orderedKey(k) {
					err = &GenerationError{Name: a.Name, Field: f.Name, Rule: "key type",
						Cause: fmt.Errorf("%s keys must be integers, floats or strings, not %s", t.Name, k)}
				}
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func isKeyed(t ir.TypeRef) bool {
	switch t.Name {
	case ir.Set, ir.UnorderedSet, ir.Map, ir.UnorderedMap:
		return true
	}
	return false
}

// orderedKey reports whether t satisfies cmp.Ordered once rendered.
func orderedKey(t ir.TypeRef) bool {
	if t.Kind == ir.KindString {
		return true
	}
	sc, ok := t.Scalar()
	return ok && !sc.Bool
}

func checkRef(a meta.Artifact, field, ref string, byName map[string]meta.Artifact) error {
	target, ok := byName[ref]
	if !ok {
		return &GenerationError{Name: a.Name, Field: field, Rule: "reference", Cause: fmt.Errorf("%s is not defined", ref)}
	}
	if target.Kind == ir.RemoteCall {
		return &GenerationError{Name: a.Name, Field: field, Rule: "reference",
			Cause: fmt.Errorf("remote call %s cannot be embedded", ref)}
	}
	return nil
}

// claimArtifact reserves every package-level identifier a would declare.
func claimArtifact(s *scope, a meta.Artifact) error {
	name := typeName(a.Name)
	names := []string{name, "New" + name, "New" + name + "With"}
	if a.Caps.Has(meta.CapTypeID) {
		names = append(names, name+"TypeID")
	}
	if a.Code != nil {
		names = append(names, name+"AllFields")
		for _, f := range a.Fields {
			names = append(names, name+"Field"+fieldName(f.Name))
		}
	}
	base := lowerFirst(a.Name)
	if a.Caps.Has(meta.CapRunHook) {
		names = append(names, "Handle"+name, base+"Handler")
	}
	if a.Caps.Has(meta.CapServerHook) {
		names = append(names,
			"Handle"+name+"Server", "Handle"+name+"Client", "Handle"+name+"Timeout", "Call"+name,
			base+"ServerHandler", base+"ClientHandler", base+"TimeoutHandler",
		)
	}
	for _, n := range names {
		if err := s.claim(n, a.Name); err != nil {
			return &GenerationError{Name: a.Name, Rule: "name", Cause: err}
		}
	}
	return nil
}

// checkFileName rejects names the go tool would treat as tests or as
// platform-specific.
func checkFileName(name string) error {
	base := strings.TrimSuffix(name, ".go")
	parts := strings.Split(base, "_")
	last := parts[len(parts)-1]
	switch {
	case last == "test":
		return fmt.Errorf("%s would be compiled as a test file", name)
	case knownOS[last] || knownArch[last]:
		return fmt.Errorf("%s would only build for %s", name, last)
	case len(parts) > 1 && knownOS[parts[len(parts)-2]] && knownArch[last]:
		return fmt.Errorf("%s would only build for %s/%s", name, parts[len(parts)-2], last)
	}
	return nil
}

// checkCycles rejects types that contain themselves by value. Slices and
// maps hold their elements indirectly and break a cycle.
func checkCycles(artifacts []meta.Artifact, byName map[string]meta.Artifact) error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := map[string]int{}
	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case visiting:
			return &GenerationError{Name: path[0], Rule: "cycle",
				Cause: errors.New(strings.Join(append(path, name), " -> ") + " embeds itself by value")}
		case done:
			return nil
		}
		state[name] = visiting
		for _, f := range byName[name].Fields {
			for _, ref := range valueRefs(f.Type) {
				if err := visit(ref, append(path, name)); err != nil {
					return err
				}
			}
		}
		state[name] = done
		return nil
	}
	for _, a := range artifacts {
		if state[a.Name] == unvisited {
			if err := visit(a.Name, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// valueRefs returns the messages t stores inline.
func valueRefs(t ir.TypeRef) []string {
	switch {
	case t.Kind == ir.KindMessage:
		return []string{t.Name}
	case t.Kind == ir.KindContainer && t.Name == ir.Pair:
		return append(valueRefs(t.Params[0]), valueRefs(t.Params[1])...)
	}
	return nil
}

// scope detects two declarations of one identifier.
type scope struct {
	what  string
	owner map[string]string
}

func newScope(what string) *scope {
	return &scope{what: what, owner: map[string]string{}}
}

func (s *scope) claim(name, owner string) error {
	if prev, ok := s.owner[name]; ok {
		return fmt.Errorf("%s %s of %s collides with %s", s.what, name, owner, prev)
	}
	s.owner[name] = owner
	return nil
}
