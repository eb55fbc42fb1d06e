/*
Package domain contains the core domain model of the titration engine.

It defines the fixed medication-class order, the caller-owned dose state, the
clinical signals read at each visit, the safety triggers derived from them and
the single Recommendation the engine emits. This package is kept pure and free
of I/O, following Hexagonal Architecture principles.

# Key Entities

  - MedicationClass: one of RAASi, BetaBlocker, MRA, SGLT2i. Order matters.
  - DoseState: titration level (0..4) per class, never mutated by the engine.
  - ClinicalSignals: optional vitals, labs and symptoms for one evaluation.
  - SafetyTrigger: an active Hypotension, Bradycardia, Hyperkalemia or RenalDecline signal.
  - Recommendation: the one proposed change (or none) with its rationale and criteria.
*/
package domain
