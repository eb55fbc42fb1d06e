/*
Package policy holds the clinical-policy inputs of the engine: the numeric
safety thresholds, the trigger-to-class mapping table and the symptom lists.

Thresholds have no defaults. A policy without the bradycardia, hypotension
and hyperkalemia cutoffs is rejected by Prepare, so an unconfigured engine
fails at startup instead of evaluating patients against guessed values.
*/
package policy
