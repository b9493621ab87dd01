// Package mutelist loads suppression policies ("mutelists") and decides
// whether a failing finding is intentionally ignored.
//
// # Document Format
//
// A mutelist is a tree of account patterns, check patterns and per-check
// rules. The document may be wrapped in a top-level Mutelist key:
//
//	Mutelist:
//	  Accounts:
//	    "111111111111":
//	      Checks:
//	        iam_user_hardware_mfa_enabled:
//	          Regions: ["*"]
//	          Resources: ["user/*"]
//	          Tags: ["env:prod"]
//	          Exceptions:
//	            Regions: ["eu-west-1"]
//	    "*":
//	      Checks:
//	        "s3_*":
//	          Resources: ["/^logs-.*$/"]
//
// Keys and list entries are patterns (see package pattern). An absent or
// empty Regions, Resources or Tags list matches anything. Exceptions
// override mutes: if any listed exception dimension matches, the rule
// does not mute the finding.
//
// # Loading
//
// Loading is all-or-nothing. A structural problem anywhere in the
// document rejects the whole document with a *ValidationError listing
// every offending path. Malformed regular expressions do not reject the
// document; they are returned as warnings and match nothing.
//
// # Thread Safety
//
// A loaded Document is immutable and may be shared by concurrent
// evaluations. A Pass memoizes decisions for one evaluation run and must
// not be shared between goroutines.
package mutelist
