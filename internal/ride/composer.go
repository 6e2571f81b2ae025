package ride

import (
	"fmt"
	"strings"

	"ridecheck/internal/types"
)

// NoteDestinationUnknown is attached to guidance when the work location should
// have been evaluated but had no observation.
const NoteDestinationUnknown = "Weather at the work location is unknown; check conditions there before setting off."

// ComposeRequest is the input to Compose. Work may be nil when the topology is
// co-located or the work observation could not be fetched; Home may be nil
// too, in which case the home verdict is "no data available".
type ComposeRequest struct {
	HomeLocation string
	WorkLocation string
	Home         *types.Observation
	Work         *types.Observation
	Profile      types.PreferenceProfile
	Topology     types.Topology
}

// Composer assembles recommendations from evaluator verdicts.
type Composer struct {
	eval *Evaluator
}

// NewComposer returns a Composer using eval. A nil eval selects the default
// evaluator.
func NewComposer(eval *Evaluator) *Composer {
	if eval == nil {
		eval = defaultEvaluator
	}
	return &Composer{eval: eval}
}

var defaultComposer = NewComposer(nil)

// Compose builds a recommendation with the default evaluator.
func Compose(req ComposeRequest) types.Recommendation {
	return defaultComposer.Compose(req)
}

// Compose evaluates home always and work only when the topology is not
// co-located and a work observation was supplied, then selects guidance from
// the decision table.
func (c *Composer) Compose(req ComposeRequest) types.Recommendation {
	topo := req.Topology
	if !topo.Valid() {
		topo = types.TopologyCrossCity
	}

	homeVerdict := c.eval.Evaluate(req.Home, req.Profile)
	rec := types.Recommendation{
		Topology: topo,
		Home: types.Section{
			Role:        types.RoleHome,
			Location:    req.HomeLocation,
			Summary:     Summarize(req.Home),
			Observation: req.Home,
			Verdict:     &homeVerdict,
		},
	}

	if topo == types.TopologyCoLocated {
		rec.Guidance = homeOnlyGuidance(topo, homeVerdict, false)
		return rec
	}

	rec.Work = &types.Section{
		Role:     types.RoleWork,
		Location: req.WorkLocation,
		Summary:  "work location weather unavailable",
	}
	if req.Work == nil {
		rec.Guidance = homeOnlyGuidance(topo, homeVerdict, true)
		return rec
	}

	workVerdict := c.eval.Evaluate(req.Work, req.Profile)
	rec.Work.Summary = Summarize(req.Work)
	rec.Work.Observation = req.Work
	rec.Work.Verdict = &workVerdict
	rec.Guidance = pairGuidance(topo, homeVerdict, workVerdict)
	return rec
}

// homeOnlyGuidance is the one-dimensional table keyed on the home verdict.
func homeOnlyGuidance(topo types.Topology, home types.Verdict, destinationUnknown bool) types.Guidance {
	var g types.Guidance
	if home.Suitable {
		g = types.Guidance{
			Tone:         types.ToneAffirmative,
			Headline:     "Conditions are suitable for riding",
			Caveats:      rideCaveats(topo),
			Alternatives: affirmativeAlternatives(topo),
		}
		switch topo {
		case types.TopologyCoLocated:
			g.Advice = "Good weather for a short ride to work. Ride safely."
		case types.TopologyCrossZone:
			g.Advice = "Conditions at home are good for riding across town."
		default:
			g.Advice = "Conditions at home are good, but this is a cross-city trip; weigh the options below before riding all the way."
		}
	} else {
		g = types.Guidance{
			Tone:         types.ToneStrongNegative,
			Headline:     "Conditions are not suitable for riding",
			Advice:       "Choose another way to get to work today.",
			Caveats:      []string{"Home: " + home.Reason},
			Alternatives: fallbackTransport(topo),
		}
	}

	if destinationUnknown {
		g.DestinationUnknown = true
		g.Caveats = append(g.Caveats, NoteDestinationUnknown)
	}
	return g
}

// pairGuidance is the two-dimensional table over (home suitable, work
// suitable). Every cell is listed explicitly.
func pairGuidance(topo types.Topology, home, work types.Verdict) types.Guidance {
	switch {
	case home.Suitable && work.Suitable:
		g := types.Guidance{
			Tone:         types.ToneAffirmative,
			Headline:     "Both locations are suitable for riding",
			Caveats:      rideCaveats(topo),
			Alternatives: affirmativeAlternatives(topo),
		}
		if topo == types.TopologyCrossCity {
			g.Advice = "Weather is fine at both ends, but for a cross-city commute consider these options:"
		} else {
			g.Advice = "Riding to work is recommended."
		}
		return g

	case home.Suitable && !work.Suitable:
		return types.Guidance{
			Tone:     types.ToneConditionalNegative,
			Headline: "Home is fine for riding, but conditions at work are poor",
			Advice:   "Riding is not recommended: conditions at the destination are unsuitable for arrival and the ride back. Take another mode for the trip.",
			Caveats: []string{
				"Work: " + work.Reason,
			},
			Alternatives: fallbackTransport(topo),
		}

	case !home.Suitable && work.Suitable:
		return types.Guidance{
			Tone:     types.ToneConditionalNegative,
			Headline: "Conditions at work are fine, but home conditions are poor",
			Advice:   "Do not ride from home. Take public transport toward work; a short ride near the destination is fine.",
			Caveats: []string{
				"Home: " + home.Reason,
				"Work: conditions at the destination are suitable.",
			},
			Alternatives: originSideTransport(topo),
		}

	default:
		return types.Guidance{
			Tone:     types.ToneStrongNegative,
			Headline: "Neither location is suitable for riding",
			Advice:   "Use non-riding transport for the whole trip.",
			Caveats: []string{
				"Home: " + home.Reason,
				"Work: " + work.Reason,
			},
			Alternatives: fallbackTransport(topo),
		}
	}
}

// rideCaveats are the topology-specific caveats attached when riding is
// advised. Co-located commutes get none.
func rideCaveats(topo types.Topology) []string {
	switch topo {
	case types.TopologyCrossZone:
		return []string{
			"Allow extra time and effort for the cross-district ride.",
			"Pick a route with bike lanes and fewer major intersections.",
		}
	case types.TopologyCrossCity:
		return []string{
			"If the distance is short (< 20 km) riding is feasible, but budget enough energy and time.",
			"For longer distances, combine public transport with a short ride.",
			"Carry rain gear and warm layers in case conditions change en route.",
		}
	default:
		return nil
	}
}

func affirmativeAlternatives(topo types.Topology) []string {
	if topo == types.TopologyCrossCity {
		return []string{
			"Public transport plus a short ride at either end",
			"Intercity train or coach with a folding bike",
		}
	}
	return nil
}

func fallbackTransport(topo types.Topology) []string {
	switch topo {
	case types.TopologyCoLocated:
		return []string{"Walk or take the bus", "Taxi or ride-hailing"}
	case types.TopologyCrossZone:
		return []string{"Metro or bus", "Taxi or ride-hailing"}
	default:
		return []string{"Intercity train or coach", "Car-pool or taxi"}
	}
}

func originSideTransport(topo types.Topology) []string {
	if topo == types.TopologyCrossCity {
		return []string{"Intercity train or coach to the work city, then a short ride"}
	}
	return []string{"Metro or bus to near work, then a short ride"}
}

// FormatText renders rec as plain text for consoles and message bodies.
func FormatText(rec types.Recommendation) string {
	var b strings.Builder

	writeSection(&b, "Home", rec.Home)
	if rec.Work != nil {
		b.WriteString("\n")
		writeSection(&b, "Work", *rec.Work)
	}

	topo := rec.Topology
	if !topo.Valid() {
		topo = types.TopologyCrossCity
	}
	label := topo.Label()
	fmt.Fprintf(&b, "\n%s%s advice:\n", strings.ToUpper(label[:1]), label[1:])
	fmt.Fprintf(&b, "%s %s\n", toneMarker(rec.Guidance.Tone), rec.Guidance.Headline)
	fmt.Fprintf(&b, "Advice: %s\n", rec.Guidance.Advice)
	for _, c := range rec.Guidance.Caveats {
		fmt.Fprintf(&b, "  - %s\n", c)
	}
	if len(rec.Guidance.Alternatives) > 0 {
		b.WriteString("Options:\n")
		for _, a := range rec.Guidance.Alternatives {
			fmt.Fprintf(&b, "  - %s\n", a)
		}
	}
	return b.String()
}

func writeSection(b *strings.Builder, title string, s types.Section) {
	if s.Location != "" {
		fmt.Fprintf(b, "%s (%s):\n", title, s.Location)
	} else {
		fmt.Fprintf(b, "%s:\n", title)
	}
	fmt.Fprintf(b, "%s\n", s.Summary)
	if s.Verdict != nil {
		mark := "[no]"
		if s.Verdict.Suitable {
			mark = "[ok]"
		}
		fmt.Fprintf(b, "%s %s\n", mark, s.Verdict.Reason)
	}
}

func toneMarker(t types.GuidanceTone) string {
	switch t {
	case types.ToneAffirmative:
		return "[ride]"
	case types.ToneConditionalNegative:
		return "[caution]"
	default:
		return "[no ride]"
	}
}
