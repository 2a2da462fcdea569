package xm

type numeric interface {
	~uint8 | ~uint16 | ~int | ~int32 | ~float32 | ~float64
}

func clampMin[T numeric](v, min T) T {
	if v < min {
		return min
	}
	return v
}

func clampMax[T numeric](v, max T) T {
	if v > max {
		return max
	}
	return v
}

func clamp[T numeric](v, min, max T) T {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func abs[T ~float32 | ~float64](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

func lerp[T ~float32 | ~float64](a, b, t T) T {
	return a + (b-a)*t
}

// slideTowards moves v towards target by at most delta.
// Written without subtracting below zero so that it works for unsigned
// operands like periods.
func slideTowards[T numeric](v, target, delta T) T {
	if v < target {
		if target-v < delta {
			return target
		}
		return v + delta
	}
	if v-target < delta {
		return target
	}
	return v - delta
}
