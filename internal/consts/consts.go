package consts

const (
	InvSqrt3     = 0.5773502691896258    // 1/sqrt(3), bus to dq voltage factor
	TorqueFactor = 1.5                   // 3-phase dq torque factor (3/2)
	FloatEps     = 2.220446049250313e-16 // IEEE 754 double machine epsilon
)
