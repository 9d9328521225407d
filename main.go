// SPDX-License-Identifier: MPL-2.0

package main

import cmd "dudley/cmd/dudley"

func main() {
	cmd.Execute()
}
