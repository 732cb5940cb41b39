package aggregates

var DraftStructureAggregateContract = Contract{
	Name:             "Forms.DraftStructureAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns version creation, draft graph rewrites and publication of a form's versions.",
}

var EntryWorkflowAggregateContract = Contract{
	Name:             "Entries.EntryWorkflowAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns entry creation and stage transitions together with their stored values.",
}
