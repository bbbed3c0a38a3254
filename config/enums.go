package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// enumName pairs the CMake constant of a variant with the short name
// accepted in configuration files.
type enumName struct {
	constant string
	short    string
}

func enumString(kind string, names []enumName, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("%s(%d)", kind, i)
	}
	return names[i].constant
}

func parseEnum(kind string, names []enumName, s string) (int, error) {
	for i, n := range names {
		if s == n.constant || strings.EqualFold(s, n.short) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("config: unknown %s %q", kind, s)
}

func decodeEnum(kind string, names []enumName, value *yaml.Node) (int, error) {
	var s string
	if err := value.Decode(&s); err != nil {
		return 0, err
	}
	i, err := parseEnum(kind, names, s)
	if err != nil {
		return 0, fmt.Errorf("line %d: %w", value.Line, err)
	}
	return i, nil
}

// -----------------------------------------------------------------------------

// ErrnoMode selects where errno lives.
type ErrnoMode int

const (
	ErrnoDefault ErrnoMode = iota
	ErrnoUndefined
	ErrnoThreadLocal
	ErrnoShared
	ErrnoExternal
	ErrnoSystem
)

var errnoNames = []enumName{
	ErrnoDefault:     {"LIBC_ERRNO_MODE_DEFAULT", "default"},
	ErrnoUndefined:   {"LIBC_ERRNO_MODE_UNDEFINED", "undefined"},
	ErrnoThreadLocal: {"LIBC_ERRNO_MODE_THREAD_LOCAL", "thread_local"},
	ErrnoShared:      {"LIBC_ERRNO_MODE_SHARED", "shared"},
	ErrnoExternal:    {"LIBC_ERRNO_MODE_EXTERNAL", "external"},
	ErrnoSystem:      {"LIBC_ERRNO_MODE_SYSTEM", "system"},
}

// ErrnoModes lists every ErrnoMode.
func ErrnoModes() []ErrnoMode {
	modes := make([]ErrnoMode, len(errnoNames))
	for i := range errnoNames {
		modes[i] = ErrnoMode(i)
	}
	return modes
}

// ParseErrnoMode accepts either the CMake constant or the short name.
func ParseErrnoMode(s string) (ErrnoMode, error) {
	i, err := parseEnum("errno mode", errnoNames, s)
	return ErrnoMode(i), err
}

func (m ErrnoMode) String() string {
	return enumString("ErrnoMode", errnoNames, int(m))
}

func (m ErrnoMode) AddTo(d Definer) {
	d.Define("LIBC_CONF_ERRNO_MODE", m.String())
}

func (m *ErrnoMode) UnmarshalYAML(value *yaml.Node) error {
	i, err := decodeEnum("errno mode", errnoNames, value)
	if err != nil {
		return err
	}
	*m = ErrnoMode(i)
	return nil
}

// -----------------------------------------------------------------------------

// MathOptimization is one entry of the libm optimization list.
type MathOptimization int

const (
	MathSkipAccuratePass MathOptimization = iota
	MathSmallTables
	MathNoErrno
	MathNoExcept
	MathFast
)

var mathOptNames = []enumName{
	MathSkipAccuratePass: {"LIBC_MATH_SKIP_ACCURATE_PASS", "skip_accurate_pass"},
	MathSmallTables:      {"LIBC_MATH_SMALL_TABLES", "small_tables"},
	MathNoErrno:          {"LIBC_MATH_NO_ERRNO", "no_errno"},
	MathNoExcept:         {"LIBC_MATH_NO_EXCEPT", "no_except"},
	MathFast:             {"LIBC_MATH_FAST", "fast"},
}

// MathOptimizations lists every MathOptimization.
func MathOptimizations() []MathOptimization {
	opts := make([]MathOptimization, len(mathOptNames))
	for i := range mathOptNames {
		opts[i] = MathOptimization(i)
	}
	return opts
}

func ParseMathOptimization(s string) (MathOptimization, error) {
	i, err := parseEnum("math optimization", mathOptNames, s)
	return MathOptimization(i), err
}

func (o MathOptimization) String() string {
	return enumString("MathOptimization", mathOptNames, int(o))
}

func (o *MathOptimization) UnmarshalYAML(value *yaml.Node) error {
	i, err := decodeEnum("math optimization", mathOptNames, value)
	if err != nil {
		return err
	}
	*o = MathOptimization(i)
	return nil
}

// -----------------------------------------------------------------------------

// QSortImpl selects the algorithm behind qsort.
type QSortImpl int

const (
	QSortQuickSort QSortImpl = iota
	QSortHeapSort
)

var qsortNames = []enumName{
	QSortQuickSort: {"LIBC_QSORT_QUICK_SORT", "quick_sort"},
	QSortHeapSort:  {"LIBC_QSORT_HEAP_SORT", "heap_sort"},
}

// QSortImpls lists every QSortImpl.
func QSortImpls() []QSortImpl {
	impls := make([]QSortImpl, len(qsortNames))
	for i := range qsortNames {
		impls[i] = QSortImpl(i)
	}
	return impls
}

func ParseQSortImpl(s string) (QSortImpl, error) {
	i, err := parseEnum("qsort implementation", qsortNames, s)
	return QSortImpl(i), err
}

func (q QSortImpl) String() string {
	return enumString("QSortImpl", qsortNames, int(q))
}

func (q QSortImpl) AddTo(d Definer) {
	d.Define("LIBC_CONF_QSORT_IMPL", q.String())
}

func (q *QSortImpl) UnmarshalYAML(value *yaml.Node) error {
	i, err := decodeEnum("qsort implementation", qsortNames, value)
	if err != nil {
		return err
	}
	*q = QSortImpl(i)
	return nil
}
