package param_test

import (
	"fmt"

	"github.com/cwbudde/algo-spectral/dsp/param"
)

func ExampleSet() {
	s := param.MustNewSet(
		param.Symmetric("Gain", "dB", 24),
		param.UnsignedInt("Wet", "%", 0, 100, 100),
	)

	s.Set(0, s.Info(0).Clamp(40))
	s.SetPercentage(1, 25)

	fmt.Println(s.Get(0), s.Get(1))
	fmt.Println(s.Index("wet"))
	// Output:
	// 24 25
	// 1
}
