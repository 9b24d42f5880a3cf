package ir

import "fmt"

// FactTypeKind discriminates the variant held by a FactType. The set is
// closed except for Custom, which escapes to an arbitrary string
// discriminant plus a FactValue-typed attribute bag for extractors that
// don't map onto one of the built-in variants.
type FactTypeKind uint8

const (
	FactTypeTaintSource FactTypeKind = iota
	FactTypeTaintSink
	FactTypeSanitization
	FactTypeUnsafeCall
	FactTypeCryptographicOperation
	FactTypeVulnerability
	FactTypeFunction
	FactTypeVariable
	FactTypeCodeSmell
	FactTypeComplexityViolation
	FactTypeDependency
	FactTypeDependencyVulnerability
	FactTypeLicense
	FactTypeUncoveredLine
	FactTypeLowTestCoverage
	FactTypeCoverageStats
	FactTypeCustom
)

// factTypeKindNames backs String; its length also fixes the small, dense
// ordinal range of FactTypeKind that the type index relies on (see
// store.TypeIndex).
var factTypeKindNames = [...]string{
	"TaintSource",
	"TaintSink",
	"Sanitization",
	"UnsafeCall",
	"CryptographicOperation",
	"Vulnerability",
	"Function",
	"Variable",
	"CodeSmell",
	"ComplexityViolation",
	"Dependency",
	"DependencyVulnerability",
	"License",
	"UncoveredLine",
	"LowTestCoverage",
	"CoverageStats",
	"Custom",
}

// NumFactTypeKinds is the size of the closed ordinal range, used to size
// array-backed indexes.
const NumFactTypeKinds = len(factTypeKindNames)

// String implements fmt.Stringer.
func (k FactTypeKind) String() string {
	if int(k) < len(factTypeKindNames) {
		return factTypeKindNames[k]
	}
	return fmt.Sprintf("facttypekind(%d)", uint8(k))
}

// TaintSourceData holds the fields of a TaintSource fact.
type TaintSourceData struct {
	Var        string
	FlowID     FlowId
	SourceType string
	Confidence Confidence
}

// TaintSinkData holds the fields of a TaintSink fact.
type TaintSinkData struct {
	Func         string
	ConsumesFlow FlowId
	Category     string
	Severity     Severity
}

// SanitizationData holds the fields of a Sanitization fact.
type SanitizationData struct {
	Func          string
	SanitizesFlow FlowId
	Category      string
}

// UnsafeCallData holds the fields of an UnsafeCall fact.
type UnsafeCallData struct {
	Func     string
	Reason   string
	Severity Severity
}

// CryptographicOperationData holds the fields of a CryptographicOperation
// fact.
type CryptographicOperationData struct {
	Algorithm string
	KeySize   *uint32
	Mode      string
}

// VulnerabilityData holds the fields of a Vulnerability fact.
type VulnerabilityData struct {
	CWEID         *string
	OWASPCategory *string
	Severity      Severity
	CVSSScore     *float64
	Description   string
	Confidence    Confidence
}

// FunctionData holds the fields of a Function fact.
type FunctionData struct {
	Name        string
	Signature   string
	Complexity  *uint32
	LinesOfCode *uint32
}

// VariableData holds the fields of a Variable fact.
type VariableData struct {
	Name     string
	TypeName string
	Mutable  bool
}

// CodeSmellData holds the fields of a CodeSmell fact.
type CodeSmellData struct {
	SmellType string
	Severity  Severity
	Message   string
}

// ComplexityViolationData holds the fields of a ComplexityViolation fact.
type ComplexityViolationData struct {
	Func      string
	Metric    string
	Value     float64
	Threshold float64
}

// DependencyData holds the fields of a Dependency fact.
type DependencyData struct {
	Name    string
	Version string
	Direct  bool
}

// DependencyVulnerabilityData holds the fields of a
// DependencyVulnerability fact.
type DependencyVulnerabilityData struct {
	DependencyName string
	AdvisoryID     string
	Severity       Severity
	PatchedVersion *string
}

// LicenseData holds the fields of a License fact.
type LicenseData struct {
	DependencyName string
	SpdxID         string
	Permitted      bool
}

// UncoveredLineData holds the fields of an UncoveredLine fact.
type UncoveredLineData struct {
	Func string
}

// LowTestCoverageData holds the fields of a LowTestCoverage fact.
type LowTestCoverageData struct {
	Func      string
	Coverage  float64
	Threshold float64
}

// CoverageStatsData holds the fields of a CoverageStats fact.
type CoverageStatsData struct {
	LinesTotal   uint64
	LinesCovered uint64
}

// CustomData holds the fields of a Custom fact: a discriminant naming the
// extractor-defined variant, plus an arbitrary attribute bag.
type CustomData struct {
	Discriminant string
	Data         map[string]FactValue
}

// FactType is the closed tagged union of fact shapes a Fact can carry.
// Exactly one of the typed data fields, selected by Kind, is populated.
// This is the idiomatic Go rendering of what the original system expresses
// as an enum with per-variant fields: a discriminant plus side-by-side
// optional payload structs, switched on by Kind everywhere the variant
// matters (index construction, rule pattern matching, path resolution).
type FactType struct {
	Kind FactTypeKind

	TaintSource             *TaintSourceData
	TaintSink               *TaintSinkData
	Sanitization            *SanitizationData
	UnsafeCall              *UnsafeCallData
	CryptographicOperation  *CryptographicOperationData
	Vulnerability           *VulnerabilityData
	Function                *FunctionData
	Variable                *VariableData
	CodeSmell               *CodeSmellData
	ComplexityViolation     *ComplexityViolationData
	Dependency              *DependencyData
	DependencyVulnerability *DependencyVulnerabilityData
	License                 *LicenseData
	UncoveredLine           *UncoveredLineData
	LowTestCoverage         *LowTestCoverageData
	CoverageStats           *CoverageStatsData
	Custom                  *CustomData
}

// NewTaintSource constructs a FactType with the TaintSource variant.
func NewTaintSource(d TaintSourceData) FactType {
	return FactType{Kind: FactTypeTaintSource, TaintSource: &d}
}

// NewTaintSink constructs a FactType with the TaintSink variant.
func NewTaintSink(d TaintSinkData) FactType {
	return FactType{Kind: FactTypeTaintSink, TaintSink: &d}
}

// NewSanitization constructs a FactType with the Sanitization variant.
func NewSanitization(d SanitizationData) FactType {
	return FactType{Kind: FactTypeSanitization, Sanitization: &d}
}

// NewUnsafeCall constructs a FactType with the UnsafeCall variant.
func NewUnsafeCall(d UnsafeCallData) FactType {
	return FactType{Kind: FactTypeUnsafeCall, UnsafeCall: &d}
}

// NewCryptographicOperation constructs a FactType with the
// CryptographicOperation variant.
func NewCryptographicOperation(d CryptographicOperationData) FactType {
	return FactType{Kind: FactTypeCryptographicOperation, CryptographicOperation: &d}
}

// NewVulnerability constructs a FactType with the Vulnerability variant.
func NewVulnerability(d VulnerabilityData) FactType {
	return FactType{Kind: FactTypeVulnerability, Vulnerability: &d}
}

// NewFunction constructs a FactType with the Function variant.
func NewFunction(d FunctionData) FactType {
	return FactType{Kind: FactTypeFunction, Function: &d}
}

// NewVariable constructs a FactType with the Variable variant.
func NewVariable(d VariableData) FactType {
	return FactType{Kind: FactTypeVariable, Variable: &d}
}

// NewCodeSmell constructs a FactType with the CodeSmell variant.
func NewCodeSmell(d CodeSmellData) FactType {
	return FactType{Kind: FactTypeCodeSmell, CodeSmell: &d}
}

// NewComplexityViolation constructs a FactType with the
// ComplexityViolation variant.
func NewComplexityViolation(d ComplexityViolationData) FactType {
	return FactType{Kind: FactTypeComplexityViolation, ComplexityViolation: &d}
}

// NewDependency constructs a FactType with the Dependency variant.
func NewDependency(d DependencyData) FactType {
	return FactType{Kind: FactTypeDependency, Dependency: &d}
}

// NewDependencyVulnerability constructs a FactType with the
// DependencyVulnerability variant.
func NewDependencyVulnerability(d DependencyVulnerabilityData) FactType {
	return FactType{Kind: FactTypeDependencyVulnerability, DependencyVulnerability: &d}
}

// NewLicense constructs a FactType with the License variant.
func NewLicense(d LicenseData) FactType {
	return FactType{Kind: FactTypeLicense, License: &d}
}

// NewUncoveredLine constructs a FactType with the UncoveredLine variant.
func NewUncoveredLine(d UncoveredLineData) FactType {
	return FactType{Kind: FactTypeUncoveredLine, UncoveredLine: &d}
}

// NewLowTestCoverage constructs a FactType with the LowTestCoverage
// variant.
func NewLowTestCoverage(d LowTestCoverageData) FactType {
	return FactType{Kind: FactTypeLowTestCoverage, LowTestCoverage: &d}
}

// NewCoverageStats constructs a FactType with the CoverageStats variant.
func NewCoverageStats(d CoverageStatsData) FactType {
	return FactType{Kind: FactTypeCoverageStats, CoverageStats: &d}
}

// NewCustom constructs a FactType with the Custom variant. discriminant
// must be non-empty; it is the bucket key the Custom side of
// store.TypeIndex groups facts by.
func NewCustom(discriminant string, data map[string]FactValue) (FactType, error) {
	if discriminant == "" {
		return FactType{}, fmt.Errorf("custom fact type: discriminant must not be empty")
	}
	return FactType{Kind: FactTypeCustom, Custom: &CustomData{Discriminant: discriminant, Data: data}}, nil
}

// Discriminant returns the Custom variant's discriminant string, and ok
// is false for every other variant.
func (f FactType) Discriminant() (string, bool) {
	if f.Kind != FactTypeCustom || f.Custom == nil {
		return "", false
	}
	return f.Custom.Discriminant, true
}

// Severity returns the severity carried by variants that have one, and ok
// is false for variants without a severity field (Function, Variable,
// Dependency, License, UncoveredLine, CoverageStats, and Custom facts,
// whose severity if any lives inside their attribute bag).
func (f FactType) Severity() (Severity, bool) {
	switch f.Kind {
	case FactTypeTaintSink:
		return f.TaintSink.Severity, true
	case FactTypeUnsafeCall:
		return f.UnsafeCall.Severity, true
	case FactTypeVulnerability:
		return f.Vulnerability.Severity, true
	case FactTypeCodeSmell:
		return f.CodeSmell.Severity, true
	case FactTypeDependencyVulnerability:
		return f.DependencyVulnerability.Severity, true
	default:
		return 0, false
	}
}

// FlowID returns the flow identifier carried by flow-bearing variants
// (TaintSource, TaintSink, Sanitization), and ok is false otherwise.
func (f FactType) FlowID() (FlowId, bool) {
	switch f.Kind {
	case FactTypeTaintSource:
		return f.TaintSource.FlowID, true
	case FactTypeTaintSink:
		return f.TaintSink.ConsumesFlow, true
	case FactTypeSanitization:
		return f.Sanitization.SanitizesFlow, true
	default:
		return FlowId{}, false
	}
}

// Field resolves a single nested field name against this FactType's
// active variant, returning it as a FactValue for use by the rule
// engine's path resolver (engine.ExprEvaluator) and template interpolation
// (engine.FindingBuilder). Unknown field names, and field lookups against
// the wrong variant, return ok=false rather than an error: the caller
// decides whether a missing field is fatal.
func (f FactType) Field(name string) (FactValue, bool) {
	switch f.Kind {
	case FactTypeTaintSource:
		d := f.TaintSource
		switch name {
		case "var":
			return NewStringValue(d.Var), true
		case "flow_id":
			return NewStringValue(d.FlowID.String()), true
		case "source_type":
			return NewStringValue(d.SourceType), true
		case "confidence":
			return NewNumberValue(d.Confidence.Get()), true
		}
	case FactTypeTaintSink:
		d := f.TaintSink
		switch name {
		case "func":
			return NewStringValue(d.Func), true
		case "consumes_flow":
			return NewStringValue(d.ConsumesFlow.String()), true
		case "category":
			return NewStringValue(d.Category), true
		case "severity":
			return NewStringValue(d.Severity.String()), true
		}
	case FactTypeSanitization:
		d := f.Sanitization
		switch name {
		case "func":
			return NewStringValue(d.Func), true
		case "sanitizes_flow":
			return NewStringValue(d.SanitizesFlow.String()), true
		case "category":
			return NewStringValue(d.Category), true
		}
	case FactTypeUnsafeCall:
		d := f.UnsafeCall
		switch name {
		case "func":
			return NewStringValue(d.Func), true
		case "reason":
			return NewStringValue(d.Reason), true
		case "severity":
			return NewStringValue(d.Severity.String()), true
		}
	case FactTypeCryptographicOperation:
		d := f.CryptographicOperation
		switch name {
		case "algorithm":
			return NewStringValue(d.Algorithm), true
		case "mode":
			return NewStringValue(d.Mode), true
		}
	case FactTypeVulnerability:
		d := f.Vulnerability
		switch name {
		case "cwe_id":
			if d.CWEID == nil {
				return NullValue, true
			}
			return NewStringValue(*d.CWEID), true
		case "owasp_category":
			if d.OWASPCategory == nil {
				return NullValue, true
			}
			return NewStringValue(*d.OWASPCategory), true
		case "severity":
			return NewStringValue(d.Severity.String()), true
		case "cvss_score":
			if d.CVSSScore == nil {
				return NullValue, true
			}
			return NewNumberValue(*d.CVSSScore), true
		case "description":
			return NewStringValue(d.Description), true
		case "confidence":
			return NewNumberValue(d.Confidence.Get()), true
		}
	case FactTypeFunction:
		d := f.Function
		switch name {
		case "name":
			return NewStringValue(d.Name), true
		case "signature":
			return NewStringValue(d.Signature), true
		case "complexity":
			if d.Complexity == nil {
				return NullValue, true
			}
			return NewNumberValue(float64(*d.Complexity)), true
		case "lines_of_code":
			if d.LinesOfCode == nil {
				return NullValue, true
			}
			return NewNumberValue(float64(*d.LinesOfCode)), true
		}
	case FactTypeVariable:
		d := f.Variable
		switch name {
		case "name":
			return NewStringValue(d.Name), true
		case "type_name":
			return NewStringValue(d.TypeName), true
		case "mutable":
			return NewBooleanValue(d.Mutable), true
		}
	case FactTypeCodeSmell:
		d := f.CodeSmell
		switch name {
		case "smell_type":
			return NewStringValue(d.SmellType), true
		case "severity":
			return NewStringValue(d.Severity.String()), true
		case "message":
			return NewStringValue(d.Message), true
		}
	case FactTypeComplexityViolation:
		d := f.ComplexityViolation
		switch name {
		case "func":
			return NewStringValue(d.Func), true
		case "metric":
			return NewStringValue(d.Metric), true
		case "value":
			return NewNumberValue(d.Value), true
		case "threshold":
			return NewNumberValue(d.Threshold), true
		}
	case FactTypeDependency:
		d := f.Dependency
		switch name {
		case "name":
			return NewStringValue(d.Name), true
		case "version":
			return NewStringValue(d.Version), true
		case "direct":
			return NewBooleanValue(d.Direct), true
		}
	case FactTypeDependencyVulnerability:
		d := f.DependencyVulnerability
		switch name {
		case "dependency_name":
			return NewStringValue(d.DependencyName), true
		case "advisory_id":
			return NewStringValue(d.AdvisoryID), true
		case "severity":
			return NewStringValue(d.Severity.String()), true
		}
	case FactTypeLicense:
		d := f.License
		switch name {
		case "dependency_name":
			return NewStringValue(d.DependencyName), true
		case "spdx_id":
			return NewStringValue(d.SpdxID), true
		case "permitted":
			return NewBooleanValue(d.Permitted), true
		}
	case FactTypeUncoveredLine:
		d := f.UncoveredLine
		if name == "func" {
			return NewStringValue(d.Func), true
		}
	case FactTypeLowTestCoverage:
		d := f.LowTestCoverage
		switch name {
		case "func":
			return NewStringValue(d.Func), true
		case "coverage":
			return NewNumberValue(d.Coverage), true
		case "threshold":
			return NewNumberValue(d.Threshold), true
		}
	case FactTypeCoverageStats:
		d := f.CoverageStats
		switch name {
		case "lines_total":
			return NewNumberValue(float64(d.LinesTotal)), true
		case "lines_covered":
			return NewNumberValue(float64(d.LinesCovered)), true
		}
	case FactTypeCustom:
		d := f.Custom
		if name == "discriminant" {
			return NewStringValue(d.Discriminant), true
		}
		if v, ok := d.Data[name]; ok {
			return v, true
		}
	}
	return FactValue{}, false
}
