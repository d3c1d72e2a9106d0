package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Returns the prompt content and any error encountered.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptPlannerSystem is the system prompt for the planning agent
	// that breaks an assignment into section subtasks. No placeholders.
	PromptPlannerSystem = "planner_system"

	// PromptQueryBuilderSystem is the system prompt for the research
	// query designer. No placeholders.
	PromptQueryBuilderSystem = "querybuilder_system"

	// PromptDrafterSystem is the system prompt for the section writer.
	// No placeholders; style guidance is appended at runtime.
	PromptDrafterSystem = "drafter_system"

	// PromptConsolidatorSystem is the system prompt for the features
	// editor that merges drafts. No placeholders.
	PromptConsolidatorSystem = "consolidator_system"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
// Services implementing this interface can have their prompt templates customised
// by injecting a PromptStore after construction.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use hardcoded default prompts.
	SetPromptStore(store PromptStore)
}
