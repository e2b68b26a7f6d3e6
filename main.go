// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/octopack/octopack/cmd/octopack"

func main() {
	cmd.Execute()
}
