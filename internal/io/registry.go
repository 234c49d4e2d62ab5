package io

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"neuronet/internal/scapeid"
)

const (
	SupportedSchemaVersion = 1
	SupportedCodecVersion  = 1
)

var (
	ErrEncoderExists   = errors.New("encoder already registered")
	ErrEncoderNotFound = errors.New("encoder not found")
	ErrDecoderExists   = errors.New("decoder already registered")
	ErrDecoderNotFound = errors.New("decoder not found")
	ErrVersionMismatch = errors.New("registry version mismatch")
	ErrIncompatible    = errors.New("component incompatible with environment")
)

// BuildContext describes the network and environment a component is built
// for. Factories validate their neuron ranges against Neurons.
type BuildContext struct {
	Environment string
	Neurons     int
	Width       int
	Height      int
	Outputs     []int
	Params      Params
}

type CompatibilityFn func(environment string) error

type EncoderFactory func(BuildContext) (Encoder, error)

type DecoderFactory func(BuildContext) (Decoder, error)

// ComponentSpec registers one encoder or decoder. A nil Compatible accepts
// every environment.
type ComponentSpec[T any] struct {
	Name          string
	Factory       func(BuildContext) (T, error)
	SchemaVersion int
	CodecVersion  int
	Compatible    CompatibilityFn
}

type (
	EncoderSpec = ComponentSpec[Encoder]
	DecoderSpec = ComponentSpec[Decoder]
)

type registry[T any] struct {
	kind        string
	errExists   error
	errNotFound error

	mu sync.RWMutex
	m  map[string]ComponentSpec[T]
}

func newRegistry[T any](kind string, errExists, errNotFound error) *registry[T] {
	return &registry[T]{
		kind:        kind,
		errExists:   errExists,
		errNotFound: errNotFound,
		m:           make(map[string]ComponentSpec[T]),
	}
}

var (
	encoderRegistry = newRegistry[Encoder]("encoder", ErrEncoderExists, ErrEncoderNotFound)
	decoderRegistry = newRegistry[Decoder]("decoder", ErrDecoderExists, ErrDecoderNotFound)
)

func (r *registry[T]) register(spec ComponentSpec[T]) error {
	if spec.Name == "" {
		return fmt.Errorf("%s name is required", r.kind)
	}
	if spec.Factory == nil {
		return fmt.Errorf("%s factory is required", r.kind)
	}
	if spec.SchemaVersion != SupportedSchemaVersion || spec.CodecVersion != SupportedCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, spec.SchemaVersion, spec.CodecVersion)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.m[spec.Name]; exists {
		return fmt.Errorf("%w: %s", r.errExists, spec.Name)
	}
	r.m[spec.Name] = spec
	return nil
}

func (r *registry[T]) resolve(name string, ctx BuildContext) (T, error) {
	var zero T
	spec, ok := r.find(name)
	if !ok {
		return zero, fmt.Errorf("%w: %s", r.errNotFound, name)
	}
	ctx.Environment = scapeid.Normalize(ctx.Environment)
	if err := r.compatibilityError(spec, ctx.Environment); err != nil {
		return zero, err
	}
	component, err := spec.Factory(ctx)
	if err != nil {
		return zero, fmt.Errorf("build %s %s: %w", r.kind, spec.Name, err)
	}
	return component, nil
}

func (r *registry[T]) compatible(name, environment string) bool {
	spec, ok := r.find(name)
	if !ok {
		return false
	}
	return r.compatibilityError(spec, scapeid.Normalize(environment)) == nil
}

// list returns the sorted registered names accepted by keep.
func (r *registry[T]) list(keep func(ComponentSpec[T]) bool) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.m))
	for name, spec := range r.m {
		if keep != nil && !keep(spec) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *registry[T]) listFor(environment string) []string {
	normalized := scapeid.Normalize(environment)
	return r.list(func(spec ComponentSpec[T]) bool {
		return r.compatibilityError(spec, normalized) == nil
	})
}

func (r *registry[T]) compatibilityError(spec ComponentSpec[T], environment string) error {
	if spec.SchemaVersion != SupportedSchemaVersion || spec.CodecVersion != SupportedCodecVersion {
		return fmt.Errorf("%w: %s", ErrVersionMismatch, spec.Name)
	}
	if spec.Compatible != nil {
		if err := spec.Compatible(environment); err != nil {
			return fmt.Errorf("%w: %s=%s: %v", ErrIncompatible, r.kind, spec.Name, err)
		}
	}
	return nil
}

// find looks name up as given, then under its canonical alias.
func (r *registry[T]) find(name string) (ComponentSpec[T], bool) {
	lookupName := strings.TrimSpace(name)
	if lookupName == "" {
		return ComponentSpec[T]{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if spec, ok := r.m[lookupName]; ok {
		return spec, true
	}
	canonicalName := CanonicalComponentName(lookupName)
	if canonicalName != "" && canonicalName != lookupName {
		if spec, ok := r.m[canonicalName]; ok {
			return spec, true
		}
	}
	return ComponentSpec[T]{}, false
}

func (r *registry[T]) reset() {
	r.mu.Lock()
	r.m = make(map[string]ComponentSpec[T])
	r.mu.Unlock()
}

// RequireEnvironment builds a CompatibilityFn accepting only the named
// environments.
func RequireEnvironment(names ...string) CompatibilityFn {
	allowed := make(map[string]struct{}, len(names))
	for _, n := range names {
		allowed[scapeid.Normalize(n)] = struct{}{}
	}
	return func(environment string) error {
		if _, ok := allowed[environment]; !ok {
			return fmt.Errorf("unsupported environment: %s", environment)
		}
		return nil
	}
}

func RegisterEncoder(name string, factory EncoderFactory) error {
	return RegisterEncoderWithSpec(EncoderSpec{
		Name:          name,
		Factory:       factory,
		SchemaVersion: SupportedSchemaVersion,
		CodecVersion:  SupportedCodecVersion,
	})
}

func RegisterEncoderWithSpec(spec EncoderSpec) error {
	return encoderRegistry.register(spec)
}

// ResolveEncoder builds the named encoder for the context's environment.
func ResolveEncoder(name string, ctx BuildContext) (Encoder, error) {
	return encoderRegistry.resolve(name, ctx)
}

func EncoderCompatibleWithEnvironment(name, environment string) bool {
	return encoderRegistry.compatible(name, environment)
}

func ListEncodersForEnvironment(environment string) []string {
	return encoderRegistry.listFor(environment)
}

func ListEncoders() []string {
	return encoderRegistry.list(nil)
}

func RegisterDecoder(name string, factory DecoderFactory) error {
	return RegisterDecoderWithSpec(DecoderSpec{
		Name:          name,
		Factory:       factory,
		SchemaVersion: SupportedSchemaVersion,
		CodecVersion:  SupportedCodecVersion,
	})
}

func RegisterDecoderWithSpec(spec DecoderSpec) error {
	return decoderRegistry.register(spec)
}

func ResolveDecoder(name string, ctx BuildContext) (Decoder, error) {
	return decoderRegistry.resolve(name, ctx)
}

func DecoderCompatibleWithEnvironment(name, environment string) bool {
	return decoderRegistry.compatible(name, environment)
}

func ListDecodersForEnvironment(environment string) []string {
	return decoderRegistry.listFor(environment)
}

func ListDecoders() []string {
	return decoderRegistry.list(nil)
}

func resetRegistriesForTests() {
	encoderRegistry.reset()
	decoderRegistry.reset()
	initializeDefaultComponents()
}
