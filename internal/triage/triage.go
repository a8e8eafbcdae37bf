// Package triage implements the deterministic red-flag gate. It runs entirely
// locally and makes no model calls. The server exposes it on its own triage
// endpoint; the council stream does not consult the gate, so a prompt sent
// straight to the council is deliberated whatever its triage tier.
package triage

import (
	"fmt"
	"sort"
	"strings"
)

// Tier is the triage urgency level.
type Tier string

const (
	TierRoutine   Tier = "routine"
	TierUrgent    Tier = "urgent"
	TierImmediate Tier = "immediate"
)

// Verdict is the terminal result of red-flag evaluation. Downstream stages
// never re-evaluate it.
type Verdict struct {
	Tier           Tier     `json:"urgency_level"`
	IsEmergency    bool     `json:"is_emergency"`
	TriggeredRules []string `json:"triggered_rules"`
	Rationale      string   `json:"rationale"`
}

// CombinationRule fires when at least Threshold of its Symptoms are
// substring-present in the input.
type CombinationRule struct {
	Name      string
	Symptoms  []string
	Threshold int
	Tier      Tier
	Rationale string
}

// VitalThreshold is the safe band for one vital sign. Values strictly
// outside [Min, Max] escalate to the declared tier; values exactly at a
// bound are safe.
type VitalThreshold struct {
	Min  float64
	Max  float64
	Tier Tier
}

// Gate evaluates symptom text and vitals against its rule tables.
type Gate struct {
	immediate  []string
	urgent     []string
	combos     []CombinationRule
	vitals     map[string]VitalThreshold
	vitalOrder []string
}

// NewGate builds a gate from explicit rule tables. Most callers want
// DefaultGate.
func NewGate(immediate, urgent []string, combos []CombinationRule, vitals map[string]VitalThreshold) *Gate {
	order := make([]string, 0, len(vitals))
	for name := range vitals {
		order = append(order, name)
	}
	sort.Strings(order)
	return &Gate{
		immediate:  immediate,
		urgent:     urgent,
		combos:     combos,
		vitals:     vitals,
		vitalOrder: order,
	}
}

// DefaultGate returns a gate loaded with the curated clinical rule tables.
func DefaultGate() *Gate {
	return NewGate(immediateFlags, urgentFlags, combinationRules, vitalThresholds)
}

// Evaluate runs the full rule cascade over free-text symptoms plus optional
// vitals. It never fails: unknown vital names are ignored and empty input
// yields a routine verdict.
func (g *Gate) Evaluate(symptomText string, vitals map[string]float64) Verdict {
	text := strings.ToLower(strings.TrimSpace(symptomText))

	verdict := Verdict{
		Tier:      TierRoutine,
		Rationale: "No immediate red flags detected.",
	}

	// Layer 1: immediate keywords, first match wins.
	for _, phrase := range g.immediate {
		if strings.Contains(text, phrase) {
			verdict.TriggeredRules = append(verdict.TriggeredRules, phrase)
			verdict.Tier = TierImmediate
			verdict.IsEmergency = true
			verdict.Rationale = fmt.Sprintf("IMMEDIATE EMERGENCY: %q detected. Seek emergency care now.", phrase)
			return verdict
		}
	}

	// Layer 2: combination rules.
	for _, rule := range g.combos {
		matched := 0
		for _, s := range rule.Symptoms {
			if strings.Contains(text, s) {
				matched++
			}
		}
		if matched >= rule.Threshold {
			verdict.TriggeredRules = append(verdict.TriggeredRules, rule.Name)
			if rule.Tier == TierImmediate {
				verdict.Tier = TierImmediate
				verdict.IsEmergency = true
				verdict.Rationale = fmt.Sprintf("IMMEDIATE EMERGENCY: %s.", rule.Rationale)
				return verdict
			}
			if verdict.Tier == TierRoutine {
				verdict.Tier = TierUrgent
				verdict.Rationale = rule.Rationale
			}
		}
	}

	// Layer 3: vital thresholds, in stable name order.
	for _, name := range g.vitalOrder {
		value, ok := vitals[name]
		if !ok {
			continue
		}
		th := g.vitals[name]
		if value >= th.Min && value <= th.Max {
			continue
		}
		trigger := fmt.Sprintf("%s=%g", name, value)
		verdict.TriggeredRules = append(verdict.TriggeredRules, trigger)
		if th.Tier == TierImmediate {
			verdict.Tier = TierImmediate
			verdict.IsEmergency = true
			verdict.Rationale = fmt.Sprintf("IMMEDIATE EMERGENCY: vital sign outside safe range: %s. Seek medical attention.", trigger)
			return verdict
		}
		if verdict.Tier == TierRoutine {
			verdict.Tier = TierUrgent
			verdict.Rationale = fmt.Sprintf("URGENT: vital sign outside safe range: %s. Seek medical attention.", trigger)
		}
	}

	// Layer 4: urgent keywords escalate to at least urgent.
	for _, phrase := range g.urgent {
		if strings.Contains(text, phrase) {
			verdict.TriggeredRules = append(verdict.TriggeredRules, phrase)
			if verdict.Tier == TierRoutine {
				verdict.Tier = TierUrgent
				verdict.Rationale = fmt.Sprintf("URGENT: %q needs prompt evaluation.", phrase)
			}
		}
	}

	return verdict
}

// EvaluatePhrases evaluates a pre-split set of symptom phrases, joining them
// so combination rules see the full set.
func (g *Gate) EvaluatePhrases(symptoms []string, vitals map[string]float64) Verdict {
	return g.Evaluate(strings.Join(symptoms, ". "), vitals)
}
