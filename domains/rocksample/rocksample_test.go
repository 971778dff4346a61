package rocksample

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpetrov/pomcpGo/internal/rng"
)

func defaultDomain(t *testing.T) *Domain {
	t.Helper()
	d, err := New("size=5,rocks=1,start=2,prior=0.5,perfect=true")
	require.NoError(t, err)
	return d
}

func TestNew_DefaultLayoutMatchesLineCorridor(t *testing.T) {
	d := defaultDomain(t)
	require.Equal(t, 5, d.Size)
	require.Equal(t, 2, d.StartPos)
	require.Equal(t, []int{2}, d.RockPos) // (0+1)*5/(1+1) == 2
	require.Equal(t, CheckBase+1, d.NumActions())
}

func TestNew_RejectsUnrecognizedParameter(t *testing.T) {
	_, err := New("size=5,bogus=1")
	require.Error(t, err)
}

func TestStep_EastFromLastCellExitsWithPositiveReward(t *testing.T) {
	d := defaultDomain(t)
	r := rng.New(1)
	s := d.CreateStartState(r)
	s.AgentPos = d.Size - 1
	obs, reward, terminal := d.Step(r, s, ActionEast)
	require.Equal(t, ObservationNone, obs)
	require.InDelta(t, rewardExit, reward, 1e-9)
	require.True(t, terminal)
}

func TestStep_SampleGoodRockPaysAndConsumesIt(t *testing.T) {
	d := defaultDomain(t)
	r := rng.New(1)
	s := d.CreateStartState(r)
	s.AgentPos = d.RockPos[0]
	s.Good[0] = true

	_, reward, terminal := d.Step(r, s, ActionSample)
	require.InDelta(t, rewardGoodSample, reward, 1e-9)
	require.False(t, terminal)
	require.True(t, s.Sampled[0])
	require.False(t, s.Good[0], "sampling a good rock should consume it")
}

func TestStep_SampleBadRockPaysPenalty(t *testing.T) {
	d := defaultDomain(t)
	r := rng.New(1)
	s := d.CreateStartState(r)
	s.AgentPos = d.RockPos[0]
	s.Good[0] = false

	_, reward, _ := d.Step(r, s, ActionSample)
	require.InDelta(t, rewardBadSample, reward, 1e-9)
}

func TestStep_SampleWithNoRockPaysPenalty(t *testing.T) {
	d := defaultDomain(t)
	r := rng.New(1)
	s := d.CreateStartState(r)
	s.AgentPos = (d.RockPos[0] + 1) % d.Size
	if s.AgentPos == d.RockPos[0] {
		t.Skip("corridor too small to have a rock-free cell")
	}
	_, reward, _ := d.Step(r, s, ActionSample)
	require.InDelta(t, rewardBadSample, reward, 1e-9)
}

func TestStep_CheckPerfectAlwaysMatchesTruth(t *testing.T) {
	d := defaultDomain(t)
	r := rng.New(1)
	s := d.CreateStartState(r)
	s.Good[0] = true
	obs, _, _ := d.Step(r, s, CheckBase+0)
	require.Equal(t, ObservationGood, obs)
	require.True(t, s.Known[0])

	s.Good[0] = false
	obs, _, _ = d.Step(r, s, CheckBase+0)
	require.Equal(t, ObservationBad, obs)
}

func TestGeneratePreferred_SamplesGoodRockUnderfoot(t *testing.T) {
	d := defaultDomain(t)
	r := rng.New(1)
	s := d.CreateStartState(r)
	s.AgentPos = d.RockPos[0]
	s.Good[0] = true
	require.Equal(t, []int{ActionSample}, d.GeneratePreferred(s, nil))
}

func TestPGSLegal_ForcesSampleOnKnownGoodRock(t *testing.T) {
	d := defaultDomain(t)
	r := rng.New(1)
	s := d.CreateStartState(r)
	s.AgentPos = d.RockPos[0]
	s.Good[0] = true
	require.Equal(t, []int{ActionSample}, d.PGSLegal(s, nil))
}

func TestPGSLegal_ForbidsSamplingBadRockUnderfoot(t *testing.T) {
	d := defaultDomain(t)
	r := rng.New(1)
	s := d.CreateStartState(r)
	s.AgentPos = d.RockPos[0]
	s.Good[0] = false
	legal := d.PGSLegal(s, nil)
	require.NotContains(t, legal, ActionSample)
}

func TestLocalMove_OnlyFlipsUnresolvedRocks(t *testing.T) {
	d := defaultDomain(t)
	r := rng.New(1)
	s := d.CreateStartState(r)
	s.Known[0] = true
	ok := d.LocalMove(r, s, nil, ObservationNone)
	require.False(t, ok, "the only rock is known; nothing left to perturb")
}

func TestCopy_IsIndependentOfOriginal(t *testing.T) {
	d := defaultDomain(t)
	r := rng.New(1)
	s := d.CreateStartState(r)
	clone := d.Copy(s)
	clone.Good[0] = !s.Good[0]
	require.NotEqual(t, s.Good[0], clone.Good[0])
}

func TestPotential_PrefersCloserGoodRockAndProgressWhenDone(t *testing.T) {
	d := defaultDomain(t)
	r := rng.New(1)
	s := d.CreateStartState(r)
	s.Good[0] = true
	near := d.Potential(s)

	s.AgentPos = d.Size - 1
	far := d.Potential(s)
	require.Greater(t, near, far, "closer to the good rock should score higher")

	s.Good[0] = false
	s.Sampled[0] = true
	require.InDelta(t, -float64(d.Size-1-s.AgentPos), d.Potential(s), 1e-9)
}
