// Package value defines the element types carried by arrays: numeric scalars
// and small fixed-arity vectors, plus component access used by composite
// arrays and tolerant comparison used by tests.
package value

// Scalar is the set of numeric component types.
type Scalar interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Vec2 is a two-component vector.
type Vec2[S Scalar] [2]S

// Vec3 is a three-component vector.
type Vec3[S Scalar] [3]S

// Vec4 is a four-component vector.
type Vec4[S Scalar] [4]S

// Common element types.
type (
	Id      = int64
	Float   = float64
	Id3     = Vec3[int64]
	Vector2 = Vec2[float64]
	Vector3 = Vec3[float64]
	Vector4 = Vec4[float64]
)
