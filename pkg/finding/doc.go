// Package finding provides the canonical scan finding type consumed by
// the mutelist evaluator, the compliance aggregator and the pipeline.
//
// A Finding is one check result for one resource in one scan. Findings
// are produced upstream by the resource collectors and flow through the
// engine once. Only Muted is ever changed here; Status is never
// overwritten, and the display status MUTED is derived on demand.
//
// Usage:
//
//	f := finding.Finding{
//	    CheckID:     "iam_user_hardware_mfa_enabled",
//	    Status:      finding.StatusFail,
//	    AccountUID:  "111111111111",
//	    Region:      "us-east-1",
//	    ResourceUID: "user/admin",
//	}
//	key := f.Identity().Key()
package finding
