// Copyright 2026 The Datasafe Authors
// SPDX-License-Identifier: Apache-2.0

package loi

import (
	"regexp"
	"strings"
)

// Root is the fixed numeric constant every LOI starts with.
const Root = "42"

// Separator separates the slash-delimited segments of an LOI.
const Separator = "/"

// RootIssuerSeparator separates the root constant from the issuer in
// the first segment.
const RootIssuerSeparator = "."

// Checker role names, used in [Options.Skip] to bypass a single
// checker's segment test. Each name identifies one link of the
// validation cascade.
const (
	CheckerRoot              = "root"
	CheckerType              = "type"
	CheckerDatasetKind       = "dataset-kind"
	CheckerExperiment        = "experiment"
	CheckerBaSaNumber        = "basa-number"
	CheckerMeasurementMethod = "measurement-method"
	CheckerMeasurementNumber = "measurement-number"
	CheckerRecipeNumber      = "recipe-number"
	CheckerCalculationKind   = "calculation-kind"
	CheckerCalculationNumber = "calculation-number"
	CheckerInfoIssuer        = "info-issuer"
	CheckerInfoKind          = "info-kind"
	CheckerInfoObject        = "info-object"
	CheckerInfoNumber        = "info-number"
	CheckerFriendlyString    = "friendly-string"
)

// Segment patterns. The date pattern checks the YYYY-MM-DD shape only;
// it does not verify the date exists.
var (
	numberPattern   = regexp.MustCompile(`^\d+$`)
	datePattern     = regexp.MustCompile(`^\d{4}-[0-1][0-9]-[0-3][0-9]$`)
	friendlyPattern = regexp.MustCompile(`^[a-z0-9-_]+$`)
)

// Closed segment sets of the LOI grammar.
var (
	objectTypes        = []string{"ds", "rec", "img", "info"}
	datasetKinds       = []string{"exp", "calc"}
	thesisKinds        = []string{"ba", "sa"}
	measurementMethods = []string{"cwepr", "trepr"}
	calculationKinds   = []string{"geo", "result"}
	infoIssuers        = []string{"tb", "ms", "jp", "dm", "cm"}
	infoKinds          = []string{"sample", "calculation", "project",
		"publication", "grant", "device", "chemical", "person"}
	sampleObjects = []string{"batch", "sample", "substrate", "synthesis",
		"cell", "tube"}
	calculationObjects = []string{"molecule", "geometry", "calculation"}
)

// Options controls a validation run. The zero value validates the
// full grammar. Options are never mutated by the cascade; the same
// value is handed to every checker, so a bypass reaches all checkers
// downstream of the point it applies to.
type Options struct {
	// Skip names checkers (by role constant) whose segment test is
	// bypassed. A skipped checker treats its segment as matching and,
	// when its segment is missing entirely, accepts the remaining
	// empty input. The cascade still continues with the skipped
	// checker's successor.
	Skip map[string]bool
}

// SkipChecker returns Options bypassing the named checkers.
func SkipChecker(names ...string) Options {
	skip := make(map[string]bool, len(names))
	for _, name := range names {
		skip[name] = true
	}
	return Options{Skip: skip}
}

func (o Options) skipped(name string) bool {
	return o.Skip[name]
}

// segmentChecker is one link of the validation cascade. Each checker
// tests the first remaining segment and selects the checker for the
// rest, with the selection allowed to depend on the segment's value.
// A nil successor ends the cascade.
type segmentChecker interface {
	name() string
	test(segment string) bool
	next(segment string) segmentChecker
}

// IsDate reports whether a segment has the ISO date shape
// (YYYY-MM-DD). The date's existence is not verified. The experiment
// grammar branches on this: callers deriving storage paths from
// experiment identifiers need the same distinction.
func IsDate(segment string) bool {
	return datePattern.MatchString(segment)
}

// Check reports whether the given string is a valid LOI. It never
// returns an error: malformed input simply yields false.
func Check(identifier string) bool {
	return CheckWith(identifier, Options{})
}

// CheckWith validates an LOI with the given options.
func CheckWith(identifier string, options Options) bool {
	if identifier == "" {
		return false
	}
	return runCascade(rootChecker{}, strings.Split(identifier, Separator), options)
}

// runCascade drives the checker chain over the remaining segments.
// A checker whose segment is absent fails unless it is bypassed:
// bypassing the trailing checker is exactly how prefix identifiers
// (awaiting slot allocation) validate. Segments remaining after the
// cascade ends are not inspected.
func runCascade(checker segmentChecker, segments []string, options Options) bool {
	if len(segments) == 0 {
		return options.skipped(checker.name())
	}
	head, rest := segments[0], segments[1:]
	if !options.skipped(checker.name()) && !checker.test(head) {
		return false
	}
	successor := checker.next(head)
	if successor == nil {
		return true
	}
	return runCascade(successor, rest, options)
}

// inList reports membership in a closed segment set.
func inList(values []string, segment string) bool {
	for _, value := range values {
		if segment == value {
			return true
		}
	}
	return false
}

// rootChecker tests the leading "42.<issuer>" segment as a prefix
// match on the root constant.
type rootChecker struct{}

func (rootChecker) name() string { return CheckerRoot }
func (rootChecker) test(segment string) bool {
	return strings.HasPrefix(segment, Root+RootIssuerSeparator)
}
func (rootChecker) next(string) segmentChecker { return typeChecker{} }

// typeChecker tests the object type and routes to the sub-grammar the
// matched type selects.
type typeChecker struct{}

func (typeChecker) name() string             { return CheckerType }
func (typeChecker) test(segment string) bool { return inList(objectTypes, segment) }
func (typeChecker) next(segment string) segmentChecker {
	switch segment {
	case "ds":
		return datasetKindChecker{}
	case "rec":
		return numberChecker{role: CheckerRecipeNumber}
	case "img":
		return nil // image identifiers carry no further structure
	case "info":
		return infoIssuerChecker{}
	}
	return nil
}

// numberChecker tests a purely numeric segment. It terminates its
// branch of the cascade.
type numberChecker struct {
	role string
}

func (c numberChecker) name() string             { return c.role }
func (numberChecker) test(segment string) bool   { return numberPattern.MatchString(segment) }
func (numberChecker) next(string) segmentChecker { return nil }

// datasetKindChecker routes "exp" and "calc" dataset identifiers.
type datasetKindChecker struct{}

func (datasetKindChecker) name() string             { return CheckerDatasetKind }
func (datasetKindChecker) test(segment string) bool { return inList(datasetKinds, segment) }
func (datasetKindChecker) next(segment string) segmentChecker {
	switch segment {
	case "exp":
		return experimentChecker{}
	case "calc":
		return calculationKindChecker{}
	}
	return nil
}

// experimentChecker accepts either an ISO date or a thesis marker
// ("ba"/"sa"). The date form continues directly with the measurement
// method; the thesis form inserts a thesis-number segment first.
type experimentChecker struct{}

func (experimentChecker) name() string { return CheckerExperiment }
func (experimentChecker) test(segment string) bool {
	return datePattern.MatchString(segment) || inList(thesisKinds, segment)
}
func (experimentChecker) next(segment string) segmentChecker {
	if datePattern.MatchString(segment) {
		return measurementMethodChecker{}
	}
	return baSaNumberChecker{}
}

// baSaNumberChecker tests the numeric thesis identifier following a
// "ba"/"sa" segment.
type baSaNumberChecker struct{}

func (baSaNumberChecker) name() string             { return CheckerBaSaNumber }
func (baSaNumberChecker) test(segment string) bool { return numberPattern.MatchString(segment) }
func (baSaNumberChecker) next(string) segmentChecker {
	return measurementMethodChecker{}
}

// measurementMethodChecker tests the closed measurement-method set.
type measurementMethodChecker struct{}

func (measurementMethodChecker) name() string { return CheckerMeasurementMethod }
func (measurementMethodChecker) test(segment string) bool {
	return inList(measurementMethods, segment)
}
func (measurementMethodChecker) next(string) segmentChecker {
	return numberChecker{role: CheckerMeasurementNumber}
}

// calculationKindChecker tests the "geo"/"result" set of calculation
// datasets.
type calculationKindChecker struct{}

func (calculationKindChecker) name() string             { return CheckerCalculationKind }
func (calculationKindChecker) test(segment string) bool { return inList(calculationKinds, segment) }
func (calculationKindChecker) next(string) segmentChecker {
	return numberChecker{role: CheckerCalculationNumber}
}

// infoIssuerChecker tests the initials of the person an info object
// belongs to.
type infoIssuerChecker struct{}

func (infoIssuerChecker) name() string             { return CheckerInfoIssuer }
func (infoIssuerChecker) test(segment string) bool { return inList(infoIssuers, segment) }
func (infoIssuerChecker) next(string) segmentChecker {
	return infoKindChecker{}
}

// infoKindChecker tests the info object kind and routes: "sample" and
// "calculation" kinds require a sub-object segment plus a trailing
// number, all other kinds accept a single friendly string.
type infoKindChecker struct{}

func (infoKindChecker) name() string             { return CheckerInfoKind }
func (infoKindChecker) test(segment string) bool { return inList(infoKinds, segment) }
func (infoKindChecker) next(segment string) segmentChecker {
	switch segment {
	case "sample":
		return infoObjectChecker{objects: sampleObjects}
	case "calculation":
		return infoObjectChecker{objects: calculationObjects}
	}
	return friendlyStringChecker{}
}

// infoObjectChecker tests the sub-object set of "sample" and
// "calculation" info objects.
type infoObjectChecker struct {
	objects []string
}

func (infoObjectChecker) name() string               { return CheckerInfoObject }
func (c infoObjectChecker) test(segment string) bool { return inList(c.objects, segment) }
func (infoObjectChecker) next(string) segmentChecker {
	return numberChecker{role: CheckerInfoNumber}
}

// friendlyStringChecker tests a human-chosen identifier: lowercase
// alphanumerics, hyphen, and underscore only.
type friendlyStringChecker struct{}

func (friendlyStringChecker) name() string             { return CheckerFriendlyString }
func (friendlyStringChecker) test(segment string) bool { return friendlyPattern.MatchString(segment) }
func (friendlyStringChecker) next(string) segmentChecker {
	return nil
}
