package canvas

// Prompt templates. Placeholders are filled with fmt.Sprintf; every
// template documents its argument order.

// routeQueryPrompt formats (options, recentMessages, artifactSection).
const routeQueryPrompt = `You are an assistant routing a user's message to the correct operation.

Your options are:
%s

Here is the recent conversation:
<conversation>
%s
</conversation>

%s

Choose the single best route for the user's latest message.`

const routeOptionsHasArtifact = `- 'rewriteArtifact': the user wants to change, rewrite or extend the existing artifact.
- 'replyToGeneralInput': the user is asking a question or making a remark that does not require changing the artifact.`

const routeOptionsNoArtifact = `- 'generateArtifact': the user wants a new document or piece of code created.
- 'replyToGeneralInput': the user is asking a question or making a remark that does not require creating an artifact.`

// currentArtifactPrompt formats (title, type, content).
const currentArtifactPrompt = `Here is the current artifact:
<artifact title=%q type=%q>
%s
</artifact>`

const noArtifactPrompt = `The user has no artifact yet.`

// includeURLPrompt formats (message).
const includeURLPrompt = `Analyze the user's message and determine if the user wants the contents of the URL included in their message included in their prompt.
Answer 'true' ONLY if it is explicitly clear they included the URL so its contents would be used, otherwise answer 'false'.

Here is the user's message:
<message>
%s
</message>`

// generateArtifactPrompt formats (reflections).
const generateArtifactPrompt = `You are an expert writing and coding assistant. Generate a new artifact (a document or piece of code) based on the user's request.
Respond by calling the provided tool with the artifact's type, title, language and full content.

Guidelines the user has established:
<reflections>
%s
</reflections>`

// rewriteArtifactPrompt formats (artifact, reflections).
const rewriteArtifactPrompt = `You are an assistant rewriting an artifact based on the user's request.
Respond with ONLY the full updated artifact content. Do not wrap it in extra markdown syntax and do not add a preamble.

Here is the current artifact:
<artifact>
%s
</artifact>

Guidelines the user has established:
<reflections>
%s
</reflections>`

// updateMetaPrompt formats (artifact, reflections).
const updateMetaPrompt = `The user asked to rewrite their artifact. Decide whether the rewrite changes the artifact's type, title or programming language.
Call the provided tool with the updated metadata, leaving fields unset when unchanged.

Here is the current artifact:
<artifact>
%s
</artifact>

Guidelines the user has established:
<reflections>
%s
</reflections>`

// rewriteThemePrompt formats (styleInstructions, artifact, reflections).
const rewriteThemePrompt = `You are an assistant restyling an artifact. Apply the following changes:
%s

Respond with ONLY the full updated artifact content, preserving everything the changes do not touch. No preamble, no extra wrapping.

Here is the current artifact:
<artifact>
%s
</artifact>

Guidelines the user has established:
<reflections>
%s
</reflections>`

// updateHighlightedCodePrompt formats (highlighted, before, after, reflections).
const updateHighlightedCodePrompt = `You are rewriting a highlighted section of code. Respond with ONLY the replacement for the highlighted section; it is spliced verbatim between the surrounding code, so include no surrounding code, no markdown fences and no explanation.

Highlighted section:
<highlight>
%s
</highlight>

Code before the highlight:
<before>
%s
</before>

Code after the highlight:
<after>
%s
</after>

Guidelines the user has established:
<reflections>
%s
</reflections>`

// updateHighlightedTextPrompt formats (selected, block).
const updateHighlightedTextPrompt = `You are rewriting selected text nested inside a markdown block. Respond with ONLY the full updated markdown block, keeping its formatting and structure; it replaces the existing block verbatim.
Change nothing except the selected text unless strictly required for it to make sense. Do not add markdown fences that were not in the original block.

Selected text:
<selected>
%s
</selected>

Markdown block:
<block>
%s
</block>`

// customActionPrompt formats (actionPrompt, artifact).
const customActionPrompt = `%s

Apply the instruction above to the artifact below. Respond with ONLY the full updated artifact content.

<artifact>
%s
</artifact>`

// replyPrompt formats (artifactSection, reflections).
const replyPrompt = `You are a helpful writing and coding assistant conversing with the user.
%s

Guidelines the user has established:
<reflections>
%s
</reflections>`

// followupPrompt formats (artifact, reflections).
const followupPrompt = `You just updated the user's artifact. Write one short, friendly sentence describing what changed. No pleasantries beyond the description, no questions.

Here is the updated artifact:
<artifact>
%s
</artifact>

Guidelines the user has established:
<reflections>
%s
</reflections>`

const followupFallback = "I've updated the artifact based on your request."

// fixDocumentPrompt formats (message).
const fixDocumentPrompt = `The following message was meant to carry an uploaded document but its structure is malformed. Reconstruct the document's text as plain text, preserving as much content as possible. Respond with ONLY the reconstructed text.

<message>
%s
</message>`
