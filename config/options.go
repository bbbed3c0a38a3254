package config

import (
	"slices"
	"strconv"
	"strings"
)

// CodegenOpts controls code generation of every libc object.
type CodegenOpts struct {
	StrongStackProtector bool `yaml:"strong_stack_protector"`
	KeepFramePointer     bool `yaml:"keep_frame_pointer"`
}

func (o CodegenOpts) AddTo(d Definer) {
	d.Define("LIBC_CONF_ENABLE_STRONG_STACK_PROTECTOR", strconv.FormatBool(o.StrongStackProtector))
	d.Define("LIBC_CONF_KEEP_FRAME_POINTER", strconv.FormatBool(o.KeepFramePointer))
}

// NullChecks enables the null pointer checks compiled into libc entry points.
type NullChecks bool

func (n NullChecks) AddTo(d Definer) {
	d.Define("LIBC_CONF_NULL_CHECKS", strconv.FormatBool(bool(n)))
}

// MathOpts tunes libm.
type MathOpts struct {
	// FrexpInfNanExponent overrides the exponent frexp stores for inf and
	// nan inputs. Nil leaves the libc default in place.
	FrexpInfNanExponent *string            `yaml:"frexp_inf_nan_exponent"`
	Optimizations       []MathOptimization `yaml:"optimizations"`
}

// WithFrexpInfNanExponent returns a copy of o with the exponent override set.
func (o MathOpts) WithFrexpInfNanExponent(exp string) MathOpts {
	o = o.clone()
	o.FrexpInfNanExponent = &exp
	return o
}

// WithOptimizations returns a copy of o using opts, in order.
func (o MathOpts) WithOptimizations(opts ...MathOptimization) MathOpts {
	o = o.clone()
	o.Optimizations = slices.Clone(opts)
	return o
}

func (o MathOpts) clone() MathOpts {
	if o.FrexpInfNanExponent != nil {
		exp := *o.FrexpInfNanExponent
		o.FrexpInfNanExponent = &exp
	}
	o.Optimizations = slices.Clone(o.Optimizations)
	return o
}

func (o MathOpts) AddTo(d Definer) {
	if o.FrexpInfNanExponent != nil {
		d.Define("LIBC_CONF_FREXP_INF_NAN_EXPONENT", *o.FrexpInfNanExponent)
	}
	names := make([]string, len(o.Optimizations))
	for i, opt := range o.Optimizations {
		names[i] = opt.String()
	}
	d.Define("LIBC_CONF_MATH_OPTIMIZATIONS", strings.Join(names, ";"))
}

// PrintfOpts trims or extends the printf family.
type PrintfOpts struct {
	DisableFixedPoint                bool `yaml:"disable_fixed_point"`
	DisableFloat                     bool `yaml:"disable_float"`
	DisableIndexMode                 bool `yaml:"disable_index_mode"`
	DisableStrerror                  bool `yaml:"disable_strerror"`
	DisableWriteInt                  bool `yaml:"disable_write_int"`
	FloatToStrNoSpecializeLD         bool `yaml:"float_to_str_no_specialize_ld"`
	FloatToStrUseDyadicFloat         bool `yaml:"float_to_str_use_dyadic_float"`
	FloatToStrUseMegaLongDoubleTable bool `yaml:"float_to_str_use_mega_long_double_table"`
}

func (o PrintfOpts) AddTo(d Definer) {
	d.Define("LIBC_CONF_PRINTF_DISABLE_FIXED_POINT", strconv.FormatBool(o.DisableFixedPoint))
	d.Define("LIBC_CONF_PRINTF_DISABLE_FLOAT", strconv.FormatBool(o.DisableFloat))
	d.Define("LIBC_CONF_PRINTF_DISABLE_INDEX_MODE", strconv.FormatBool(o.DisableIndexMode))
	d.Define("LIBC_CONF_PRINTF_DISABLE_STRERROR", strconv.FormatBool(o.DisableStrerror))
	d.Define("LIBC_CONF_PRINTF_DISABLE_WRITE_INT", strconv.FormatBool(o.DisableWriteInt))
	d.Define("LIBC_CONF_PRINTF_FLOAT_TO_STR_NO_SPECIALIZE_LD", strconv.FormatBool(o.FloatToStrNoSpecializeLD))
	d.Define("LIBC_CONF_PRINTF_FLOAT_TO_STR_USE_DYADIC_FLOAT", strconv.FormatBool(o.FloatToStrUseDyadicFloat))
	d.Define("LIBC_CONF_PRINTF_FLOAT_TO_STR_USE_MEGA_LONG_DOUBLE_TABLE", strconv.FormatBool(o.FloatToStrUseMegaLongDoubleTable))
}

// PThreadOpts tunes the pthread implementation.
type PThreadOpts struct {
	RawMutexDefaultSpinCount  uint `yaml:"raw_mutex_default_spin_count"`
	RWLockDefaultSpinCount    uint `yaml:"rwlock_default_spin_count"`
	TimeoutEnsureMonotonicity bool `yaml:"timeout_ensure_monotonicity"`
}

// DefaultPThreadOpts returns the upstream pthread defaults.
func DefaultPThreadOpts() PThreadOpts {
	return PThreadOpts{
		RawMutexDefaultSpinCount:  100,
		RWLockDefaultSpinCount:    100,
		TimeoutEnsureMonotonicity: true,
	}
}

func (o PThreadOpts) AddTo(d Definer) {
	d.Define("LIBC_CONF_PTHREAD_RAW_MUTEX_DEFAULT_SPIN_COUNT", strconv.FormatUint(uint64(o.RawMutexDefaultSpinCount), 10))
	d.Define("LIBC_CONF_PTHREAD_RWLOCK_DEFAULT_SPIN_COUNT", strconv.FormatUint(uint64(o.RWLockDefaultSpinCount), 10))
	d.Define("LIBC_CONF_PTHREAD_TIMEOUT_ENSURE_MONOTONICITY", strconv.FormatBool(o.TimeoutEnsureMonotonicity))
}

type ScanfOpts struct {
	DisableFloat     bool `yaml:"disable_float"`
	DisableIndexMode bool `yaml:"disable_index_mode"`
}

func (o ScanfOpts) AddTo(d Definer) {
	d.Define("LIBC_CONF_SCANF_DISABLE_FLOAT", strconv.FormatBool(o.DisableFloat))
	d.Define("LIBC_CONF_SCANF_DISABLE_INDEX_MODE", strconv.FormatBool(o.DisableIndexMode))
}

type SetjmpOpts struct {
	AArch64RestorePlatformRegister bool `yaml:"aarch64_restore_platform_register"`
}

func (o SetjmpOpts) AddTo(d Definer) {
	d.Define("LIBC_CONF_SETJMP_AARCH64_RESTORE_PLATFORM_REGISTER", strconv.FormatBool(o.AArch64RestorePlatformRegister))
}

type StringOpts struct {
	MemsetX86UseSoftwarePrefetch bool `yaml:"memset_x86_use_software_prefetch"`
	UnsafeWideRead               bool `yaml:"unsafe_wide_read"`
}

func (o StringOpts) AddTo(d Definer) {
	d.Define("LIBC_CONF_MEMSET_X86_USE_SOFTWARE_PREFETCH", strconv.FormatBool(o.MemsetX86UseSoftwarePrefetch))
	d.Define("LIBC_CONF_STRING_UNSAFE_WIDE_READ", strconv.FormatBool(o.UnsafeWideRead))
}

type TimeOpts struct {
	// Force64Bit makes time_t 64-bit on 32-bit targets.
	Force64Bit bool `yaml:"force_64bit"`
}

func (o TimeOpts) AddTo(d Definer) {
	d.Define("LIBC_CONF_TIME_64BIT", strconv.FormatBool(o.Force64Bit))
}
