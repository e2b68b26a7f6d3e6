// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against embedded schemas.
//
// Every CUE file octopack reads goes through the same three steps:
//
//  1. Compile the embedded schema
//  2. Compile the user file and unify it with a schema definition
//  3. Validate, then decode into Go values
//
// Unify stops after step 2 for callers that decode into a map (the viper
// config layer). ParseAndDecode and ParseFile run all three steps:
//
//	//go:embed inputs_schema.cue
//	var inputsSchema []byte
//
//	res, err := cueutil.ParseFile[Inputs](inputsSchema, "inputs.cue", "#Inputs")
//	if err != nil {
//	    return nil, err // file path and CUE field path are in the message
//	}
//	return res.Value, nil
package cueutil
