package config

import "strings"

// Version is reported by `corrosion --version`.
const Version = "0.1.0"

const SourceFileExt = ".crn"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".crn", ".corrosion"}

// BundleFileExt is the extension for serialized IR bundles.
const BundleFileExt = ".crnb"

// ProjectFileName is the per-project configuration file the CLI looks for.
const ProjectFileName = "corrosion.yml"

// DefaultMacroDepth caps macro expansion recursion. It is the sole tunable
// of the core pipeline and can be overridden per project or per invocation.
const DefaultMacroDepth = 64

// Built-in typespec names recognized in struct field declarations
const (
	IntTypeName    = "Int"
	FloatTypeName  = "Float"
	StringTypeName = "String"
	BoolTypeName   = "Bool"
	AnyTypeName    = "Any"
)

// Built-in function names the resolver treats as predeclared
const (
	PrintFuncName  = "print"
	PanicFuncName  = "panic"
	LenFuncName    = "len"
	TypeOfFuncName = "typeOf"
	ToStrFuncName  = "toStr"
)

// EntryFunctionName is the function the backends call first.
const EntryFunctionName = "main"

// HasSourceExt reports whether path ends in a recognized source extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// TrimSourceExt strips a recognized source extension, if any.
func TrimSourceExt(name string) string {
	for _, ext := range SourceFileExtensions {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}
