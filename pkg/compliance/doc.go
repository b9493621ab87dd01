// Package compliance loads compliance framework documents and indexes
// their requirements by check id.
//
// A framework document lists requirements, each mapped to zero or more
// check ids and carrying schema-specific attribute records:
//
//	{
//	  "Framework": "CIS",
//	  "Version": "2.0",
//	  "Provider": "AWS",
//	  "Description": "CIS Amazon Web Services Foundations Benchmark v2.0.0",
//	  "Requirements": [
//	    {
//	      "Id": "1.1",
//	      "Description": "Maintain current contact details",
//	      "Checks": ["account_maintain_current_contact_details"],
//	      "Attributes": [{"Section": "1. Identity and Access Management", "Profile": "Level 1", ...}]
//	    }
//	  ]
//	}
//
// The framework id is the file name without extension, for example
// cis_2.0_aws. Documents may be JSON or YAML. The attribute schema is
// selected by the Framework field: CIS, ISO27001*, MITRE-ATTACK, or the
// generic schema for everything else. Unknown fields are rejected.
//
// A requirement without checks is manual and never derives its status
// from findings.
//
// A Catalog is immutable once built and safe for concurrent use.
package compliance
