// Command ctump downloads token-authorized document pages from a DocImage
// endpoint and assembles them into a single PDF.
//
//	ctump fetch --token <tok> --start 1 --end 450 -o anatomy.pdf
//	ctump batch --manifest jobs.json --concurrency 6 --segment-size 200
//
// Configuration comes from a YAML file (-c), CTUMP_* environment variables
// (a .env file is honored), and flags, in that order of precedence.
package main
