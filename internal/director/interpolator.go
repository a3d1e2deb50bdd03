package director

// KeyframeAt returns the pointer and scroll state at time t (seconds),
// interpolated linearly between the surrounding samples. Before the first and
// after the last sample the nearest one is returned.
func KeyframeAt(keyframes []Keyframe, t float64) Keyframe {
	if len(keyframes) == 0 {
		return Keyframe{Time: t}
	}
	if t <= keyframes[0].Time {
		kf := keyframes[0]
		kf.Time = t
		return kf
	}
	last := keyframes[len(keyframes)-1]
	if t >= last.Time {
		last.Time = t
		return last
	}

	var prev, next Keyframe
	for i := 0; i < len(keyframes)-1; i++ {
		if t >= keyframes[i].Time && t < keyframes[i+1].Time {
			prev, next = keyframes[i], keyframes[i+1]
			break
		}
	}

	span := next.Time - prev.Time
	if span == 0 {
		span = 0.001
	}
	f := (t - prev.Time) / span

	return Keyframe{
		Time:     t,
		Focus:    prev.Focus,
		PointerX: lerp(prev.PointerX, next.PointerX, f),
		PointerY: lerp(prev.PointerY, next.PointerY, f),
		ScrollY:  lerp(prev.ScrollY, next.ScrollY, f),
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
