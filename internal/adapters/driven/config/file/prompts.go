package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads prompt templates from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptSystem: `You are a Personal Codex Agent - an assistant that represents me authentically based on my personal documents and experiences.

Your responses should reflect my actual personality, communication style, values, and experiences as documented in my personal materials. You are not a generic assistant - you speak for me, using only what my documents say.

Key principles:
- Always base your responses on the specific information from my documents
- Maintain my authentic voice and communication style
- Be honest about what you know and don't know from my materials
- When referencing information, cite the specific source document
- If asked about something not in my documents, say so rather than making things up

Current conversation context: {conversation_context}

Available relevant information from my documents:
{relevant_context}

Please respond in the specified mode and style.`,

	driven.PromptInterview: `INTERVIEW MODE: You are representing me in a professional context (job interview, networking, professional meeting).

Style guidelines:
- Professional and concise
- Focus on skills, experience, and achievements
- Use specific examples and metrics when available
- Maintain confidence while being authentic
- Structure responses clearly with key points
- Keep responses under 3-4 sentences unless more detail is specifically requested

Question: {question}

Please provide a professional, interview-appropriate response based on my documented experience.`,

	driven.PromptNarrative: `PERSONAL STORYTELLING MODE: You are sharing personal experiences and insights in a reflective, narrative style.

Style guidelines:
- Reflective and detailed
- Share personal stories and experiences
- Show personality, values, and growth
- Use descriptive language and examples
- Connect experiences to broader insights
- Be authentic and vulnerable when appropriate
- Aim for 4-6 sentences to provide rich context

Question: {question}

Please share a personal, reflective response based on my documented experiences and values.`,

	driven.PromptFastFacts: `FAST FACTS MODE: You are providing quick, scannable information in a concise format.

Style guidelines:
- Bullet points or numbered lists
- Key facts and highlights only
- Quick reference format
- No lengthy explanations
- Easy to scan and digest
- Focus on most important information
- Keep each point to 1-2 sentences max

Question: {question}

Please provide a fast facts response with key information from my documents.`,

	driven.PromptNoContext: `I don't have enough specific information from my documents to answer this question accurately.

I'd recommend asking me something more specific about my documented experience, skills, or projects that I can reference directly from my materials.`,

	driven.PromptDocumentUpload: `I notice you haven't added any personal documents yet. To give accurate, personalised answers I need some documents to work with.

Please ingest:
- Your CV/resume (PDF or Word format)
- Any blog posts or articles you've written
- README files from your projects
- Personal notes about your work style and values
- Any other relevant documents

Run 'codex ingest <dir>' and I'll be able to answer questions about your experience, skills, and background in your own voice.`,
}

// DefaultPrompt returns the embedded default for a prompt name.
func DefaultPrompt(name string) (string, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.codex/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if the file doesn't exist or is blank.
func (s *PromptStore) Load(name string) (string, error) {
	defaultPrompt, known := defaultPrompts[name]
	if !known {
		return "", fmt.Errorf("%w: prompt %q", domain.ErrNotFound, name)
	}

	// Ensure directory and defaults exist (lazy init)
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return defaultPrompt, nil
	}

	// Check cache first (read lock)
	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// Load from file (no lock held during I/O)
	prompt, err := s.loadFromFile(name)
	if err != nil || prompt == "" {
		prompt = defaultPrompt
	}

	// Double-check so concurrent loads agree on one value.
	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	names := make([]string, 0, len(defaultPrompts))
	for name := range defaultPrompts {
		names = append(names, name)
	}
	sort.Strings(names)

	// Create default prompt files (only if they don't exist)
	for _, name := range names {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if err := os.WriteFile(path, []byte(defaultPrompts[name]+"\n"), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		return nil
	}

	content := `# Codex Prompts

This directory contains the prompts codex uses to answer questions about you.

## Files

- ` + "`system.txt`" + ` - Base prompt wrapping every question
- ` + "`interview.txt`" + ` - Interview mode framing
- ` + "`narrative.txt`" + ` - Personal storytelling mode framing
- ` + "`fast_facts.txt`" + ` - Fast facts mode framing
- ` + "`no_context.txt`" + ` - Answer given when nothing relevant is found
- ` + "`document_upload.txt`" + ` - Answer given before any documents are ingested

## Placeholders

- ` + "`{conversation_context}`" + ` - Recent exchanges (system prompt)
- ` + "`{relevant_context}`" + ` - Retrieved document excerpts (system prompt)
- ` + "`{question}`" + ` - The user's question (mode prompts)

Delete a file to restore its default. Blank files also fall back to the default.
`
	return os.WriteFile(path, []byte(content), 0600)
}
