package models

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestComputeComposite(t *testing.T) {
	w := DefaultWeights()

	cases := []struct {
		name     string
		onChain  int
		offChain int
		referral float64
		want     int
	}{
		{"no signal", 0, 0, 0, 0},
		{"on-chain only", 500, 0, 0, 200},
		{"off-chain only", 0, 720, 0, 432},
		{"blended", 500, 720, 0, 632},
		{"referral rounds half away from zero", 0, 0, 2.5, 3},
		{"negative referral rounds half away from zero", 0, 0, -2.5, 0},
		{"referral fraction below half drops", 500, 720, 0.4, 632},
		{"referral at half rounds up", 500, 720, 0.5, 633},
		{"floor clamp", 0, 0, -50, 0},
		{"ceiling clamp", 850, 850, 500, 1000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeComposite(tc.onChain, tc.offChain, tc.referral, w)
			if got != tc.want {
				t.Errorf("ComputeComposite(%d, %d, %v) = %d, want %d",
					tc.onChain, tc.offChain, tc.referral, got, tc.want)
			}
		})
	}
}

func TestComputeCompositeProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	w := DefaultWeights()
	genComponent := gen.IntRange(0, BureauMax)
	genReferral := gen.Float64Range(-100, 500)

	properties.Property("composite stays within published bounds", prop.ForAll(
		func(onChain, offChain int, referral float64) bool {
			c := ComputeComposite(onChain, offChain, referral, w)
			return c >= CompositeMin && c <= CompositeMax
		},
		genComponent, genComponent, genReferral,
	))

	properties.Property("composite is deterministic", prop.ForAll(
		func(onChain, offChain int, referral float64) bool {
			return ComputeComposite(onChain, offChain, referral, w) ==
				ComputeComposite(onChain, offChain, referral, w)
		},
		genComponent, genComponent, genReferral,
	))

	properties.Property("composite is monotone in each bureau component", prop.ForAll(
		func(onChain, offChain int, referral float64) bool {
			base := ComputeComposite(onChain, offChain, referral, w)
			return ComputeComposite(onChain+10, offChain, referral, w) >= base &&
				ComputeComposite(onChain, offChain+10, referral, w) >= base
		},
		gen.IntRange(0, BureauMax-10), gen.IntRange(0, BureauMax-10), genReferral,
	))

	properties.TestingRun(t)
}

func TestClampComponent(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{-5, 0},
		{0, 0},
		{1, 1},
		{850, 850},
		{851, 850},
	}
	for _, tc := range cases {
		if got := ClampComponent(tc.in); got != tc.want {
			t.Errorf("ClampComponent(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
