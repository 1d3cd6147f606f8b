// Command genmesh turns text prompts into images and 3D models.
//
// Usage:
//
//	genmesh serve [-config genmesh.yaml]
//	genmesh generate -user alice -prompt "a glowing dragon" [-apps id1,id2] [-session s1]
//	genmesh version
//
// A .env file in the working directory is loaded before the configuration,
// so GENMESH_* overrides and provider API keys can live there.
package main
