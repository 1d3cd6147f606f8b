// Package expander elaborates terse user prompts into detailed descriptions
// suitable for visual generation by delegating to a text generation model.
package expander
