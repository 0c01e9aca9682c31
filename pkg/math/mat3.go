package math

// Mat3 is a 3x3 matrix in column-major order.
type Mat3 [9]float32

// Identity3 returns a 3x3 identity matrix.
func Identity3() Mat3 {
	return Mat3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// Mat2 is a 2x2 matrix in column-major order.
type Mat2 [4]float32

// Identity2 returns a 2x2 identity matrix.
func Identity2() Mat2 {
	return Mat2{
		1, 0,
		0, 1,
	}
}

// Rotate2 returns a 2D rotation matrix. angle is in radians.
func Rotate2(angle float32) Mat2 {
	c, s := cos(angle), sin(angle)
	return Mat2{
		c, s,
		-s, c,
	}
}

// MulVec3 returns m * v.
func (m Mat3) MulVec3(v Vec3) Vec3 {
	return Vec3{
		X: m[0]*v.X + m[3]*v.Y + m[6]*v.Z,
		Y: m[1]*v.X + m[4]*v.Y + m[7]*v.Z,
		Z: m[2]*v.X + m[5]*v.Y + m[8]*v.Z,
	}
}
