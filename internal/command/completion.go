// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/unitdex/internal/meta"
)

const bashCompletionScript = `# bash completion for unitdex
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_unitdex()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "units traits items tierlist codes refresh cache feedback completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local common="--attrs -a --color -c --filter -f --local --output -o --sort -s --titles -t --tldr"
    local load="--refresh -r --no-preload --url --schema"

    case "$cmd" in
        units)
            local opts="$common $load --search --rarity --attribute --damage --element --match-all --show-base --interactive -i"
            ;;
        traits|items|tierlist|codes)
            local opts="$common $load"
            ;;
        refresh)
            local opts="--diff -d --color -c --no-preload units traits items tierlist codes"
            ;;
        cache)
            local opts="$common"
            ;;
        feedback)
            if [[ "$prev" == "--category" ]]; then
                COMPREPLY=( $(compgen -W "'Bug Report' Suggestion 'Content Issue' Other" -- "$cur") )
                return 0
            fi
            local opts="--category --subject --description --contact"
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$common"
            ;;
    esac

    if [[ "$prev" == "--output" || "$prev" == "-o" ]]; then
        COMPREPLY=( $(compgen -W "text json raw yaml" -- "$cur") )
        return 0
    fi

    COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    return 0
}

complete -F _unitdex unitdex
`

const zshCompletionScript = `#compdef unitdex

_unitdex() {
  local -a cmds
  cmds=(
    'units:list units'
    'traits:list traits'
    'items:list items'
    'tierlist:show the tier list'
    'codes:list redeem codes'
    'refresh:fetch datasets now, ignoring the cache'
    'cache:list cached datasets and their freshness'
    'feedback:send feedback to the site maintainers'
    'completion:generate shell completion script'
  )

  local -a common
  common=(
  '(-a --attrs)'{-a,--attrs}'[attributes to include]:attrs'
  '(-c --color)'{-c,--color}'[enable colored text]'
  '(-f --filter)'{-f,--filter}'[filters to apply]:filters'
  '--local[convert timestamps to the configured timezone]'
  '(-o --output)'{-o,--output}'[output format]:format:(text json raw yaml)'
  '(-s --sort)'{-s,--sort}'[sort attributes]:attrs'
  '(-t --titles)'{-t,--titles}'[show titles]'
  '--tldr[show tldr page]'
  )

  local -a load
  load=(
  '(-r --refresh)'{-r,--refresh}'[ignore the cache]'
  '--no-preload[skip image preloading]'
  '--url[dataset source]:url'
  '--schema[list attribute paths]'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'unitdex commands' cmds
    return
  fi

  case $words[2] in
    units)
      _arguments -C \
        $common $load \
        '--search[name or alias contains]:text' \
        '*--rarity[rarity]:rarity' \
        '*--attribute[attribute]:attribute' \
        '*--damage[damage type]:damage' \
        '*--element[element]:element' \
        '--match-all[require every element]' \
        '--show-base[include base units]' \
        '(-i --interactive)'{-i,--interactive}'[browse interactively]'
      ;;
    traits|items|tierlist|codes)
      _arguments -C $common $load
      ;;
    refresh)
      _arguments -C \
        '(-d --diff)'{-d,--diff}'[show changes]' \
        '(-c --color)'{-c,--color}'[enable colored diff]' \
        '--no-preload[skip image preloading]' \
        '*:dataset:(units traits items tierlist codes)'
      ;;
    cache)
      _arguments -C $common
      ;;
    feedback)
      _arguments -C \
        '--category[category]:category:("Bug Report" Suggestion "Content Issue" Other)' \
        '--subject[summary]:subject' \
        '--description[details]:description' \
        '--contact[contact]:contact'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _unitdex unitdex
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	w := Writer(cmd)

	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	switch shell {
	case "bash":
		fmt.Fprint(w, bashCompletionScript)
	case "zsh":
		fmt.Fprint(w, zshCompletionScript)
	default:
		// Try to detect from SHELL or print help
		sh := os.Getenv("SHELL")
		if strings.HasSuffix(sh, "zsh") {
			fmt.Fprint(w, zshCompletionScript)
		} else if strings.HasSuffix(sh, "bash") {
			fmt.Fprint(w, bashCompletionScript)
		} else {
			fmt.Fprintln(os.Stderr, "usage: unitdex completion [bash|zsh]")
			return nil
		}
	}
	return nil
}

func CompletionCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "unitdex completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
