// Package schema provides the rule document model, its YAML/JSON loader,
// and the preprocessing that runs once before any rows are transformed.
//
// A rule document has three parts:
//
//	templateMeta:        # source sheets, keys and parent/child links
//	  - name: Visit
//	    primaryKey: [SiteID]
//	    parentKey: []
//	    type: root
//	    foreignKeys:
//	      - name: Observation
//	        primaryKey: [SiteID]
//	  - name: Observation
//	    primaryKey: [SiteID, ObsNum]
//	    parentKey: [SiteID]
//	    type: ""
//	    foreignKeys: []
//	map:                 # rules producing target records
//	  - name: occurrence
//	    condition:
//	      - if: Observation[ObsNum]
//	    fields:
//	      - columnName: occurrenceID
//	        columnValue:
//	          - paths: ["Observation[_key]"]
//	            postfix: auto
//	dwcMeta:             # composite keys of the target sheets
//	  - name: occurrence
//	    primaryKey: [occurrenceID]
//
// # Path Syntax
//
// A path selects column values from rows of one template sheet:
//   - Single column: "Observation[Date]"
//   - Several columns: "Observation[UTM Zone|Easting|Northing]"
//   - Derived identities: "Observation[_key]", "Observation[_parentKey]"
//
// The object form {sheet: Observation, columns: [Date]} is equivalent.
//
// # Preprocessing
//
// Prepare orders the template sheets root-first (breadth-first over child
// links, recording each sheet's distance to the root) and replaces every
// "auto" postfix with a sequence number in document order. Both steps are
// deterministic; the input Document is never modified.
package schema
