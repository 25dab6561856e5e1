// Copyright (C) 2026  Thiago Silva

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package assembler

import (
	"bufio"
	"io"
	"strings"
	"unicode"

	"github.com/thiago-ssilva/lc3-vm/pkg/encoding"
	"github.com/thiago-ssilva/lc3-vm/pkg/machine"
)

// statement is one assembled line: an instruction or directive keyword and
// its operands, placed at a known address.
type statement struct {
	Keyword  Token
	Operands []Token
	Addr     uint16
}

func parseDirective(ident string) DirectiveType {
	if strings.EqualFold(ident, ".ORIG") {
		return DIRECTIVE_ORIG
	} else if strings.EqualFold(ident, ".FILL") {
		return DIRECTIVE_FILL
	} else if strings.EqualFold(ident, ".BLKW") {
		return DIRECTIVE_BLKW
	} else if strings.EqualFold(ident, ".STRINGZ") {
		return DIRECTIVE_STRINGZ
	} else if strings.EqualFold(ident, ".END") {
		return DIRECTIVE_END
	}

	return DIRECTIVE_INVALID
}

// parseBranch decodes the BR mnemonic family. The optional n/z/p suffix
// selects the condition bits; a bare BR branches on any condition.
func parseBranch(ident string) (uint16, bool) {
	upper := strings.ToUpper(ident)

	if !strings.HasPrefix(upper, "BR") {
		return 0, false
	}

	var flags uint16

	for _, char := range upper[2:] {
		var flag uint16

		switch char {
		case 'N':
			flag = 1 << 2
		case 'Z':
			flag = 1 << 1
		case 'P':
			flag = 1 << 0
		default:
			return 0, false
		}

		if flags&flag != 0 {
			return 0, false
		}

		flags |= flag
	}

	if flags == 0 {
		flags = 0b111
	}

	return flags, true
}

// trapAliases maps the assembler shorthand for the service routines to
// their trap vectors.
var trapAliases = map[string]uint16{
	"GETC":  machine.TRAP_GETC,
	"OUT":   machine.TRAP_OUT,
	"PUTS":  machine.TRAP_PUTS,
	"IN":    machine.TRAP_IN,
	"PUTSP": machine.TRAP_PUTSP,
	"HALT":  machine.TRAP_HALT,
}

var mnemonics = map[string]struct{}{
	"ADD":  {},
	"AND":  {},
	"JMP":  {},
	"JSR":  {},
	"JSRR": {},
	"LD":   {},
	"LDI":  {},
	"LDR":  {},
	"LEA":  {},
	"NOT":  {},
	"RET":  {},
	"RTI":  {},
	"ST":   {},
	"STI":  {},
	"STR":  {},
	"TRAP": {},
}

func isMnemonic(ident string) bool {
	upper := strings.ToUpper(ident)

	if _, ok := mnemonics[upper]; ok {
		return true
	}

	if _, ok := trapAliases[upper]; ok {
		return true
	}

	_, ok := parseBranch(ident)
	return ok
}

func parseRegister(token *Token) (uint16, bool) {
	ident := strings.ToUpper(token.Value)

	if len(ident) != 2 || ident[0] != 'R' {
		return 0, false
	}

	if ident[1] < '0' || ident[1] > '7' {
		return 0, false
	}

	return uint16(ident[1] - '0'), true
}

// parseLiteral decodes a numeric token into a field of the given bit width.
// Hex literals are taken as raw bit patterns; decimal literals may be
// negative and are truncated to the field after a range check.
func parseLiteral(token *Token, bits LiteralType) (uint16, error) {
	mask := uint16((uint32(1) << bits) - 1)

	if strings.ContainsAny(token.Value, "xX") {
		result, err := encoding.DecodeHex(token.Value)

		if err != nil {
			return 0, &InvalidLiteralError{token.Position}
		}

		if bits < 16 && uint32(result) >= uint32(1)<<bits {
			return 0, &OversizedLiteralError{token.Position, bits}
		}

		return result & mask, nil
	}

	result, err := encoding.DecodeInt(token.Value)

	if err != nil {
		return 0, &InvalidLiteralError{token.Position}
	}

	if bits < 16 {
		if int32(result) < -(int32(1)<<(bits-1)) ||
			int32(result) >= int32(1)<<(bits-1) {
			return 0, &OversizedLiteralError{token.Position, bits}
		}
	}

	return uint16(result) & mask, nil
}

// unescapeString expands the escape sequences a .STRINGZ literal may carry.
func unescapeString(token *Token) (string, error) {
	var builder strings.Builder
	escaped := false

	for _, char := range token.Value {
		if !escaped {
			if char == '\\' {
				escaped = true
			} else {
				builder.WriteRune(char)
			}
			continue
		}

		switch char {
		case 'n':
			builder.WriteRune('\n')
		case 't':
			builder.WriteRune('\t')
		case 'r':
			builder.WriteRune('\r')
		case '0':
			builder.WriteRune(0)
		case '\\', '"':
			builder.WriteRune(char)
		default:
			return "", &InvalidStringError{token.Position}
		}

		escaped = false
	}

	if escaped {
		return "", &InvalidStringError{token.Position}
	}

	return builder.String(), nil
}

// startsHexLiteral reports whether the text following a leading x is a run
// of hex digits, distinguishing a literal like xFFFF from an identifier like
// XLOOP.
func startsHexLiteral(rest string) bool {
	digits := 0

	for _, char := range rest {
		if unicode.IsSpace(char) || char == ',' || char == ';' {
			break
		}

		if !strings.ContainsRune("0123456789abcdefABCDEF", char) {
			return false
		}

		digits++
	}

	return digits > 0
}

// tokenizeLine splits one source line into tokens, dropping comments.
func tokenizeLine(line string, lineno int) ([]Token, []error) {
	var tokens []Token
	var errs []error
	var builder strings.Builder

	tokenType := TOKEN_NONE
	tokenStart := 0
	escaped := false
	inString := false

	flush := func() {
		if tokenType == TOKEN_NONE {
			return
		}

		tokens = append(tokens, Token{
			Type:     tokenType,
			Position: Cursor{lineno, tokenStart},
			Value:    builder.String(),
		})
		builder.Reset()
		tokenType = TOKEN_NONE
	}

	for column, char := range line {
		cursor := Cursor{lineno, column + 1}

		if inString {
			if escaped {
				builder.WriteRune(char)
				escaped = false
			} else if char == '\\' {
				builder.WriteRune(char)
				escaped = true
			} else if char == '"' {
				flush()
				inString = false
			} else {
				builder.WriteRune(char)
			}
			continue
		}

		switch {
		case char == ';':
			flush()
			return tokens, errs

		case unicode.IsSpace(char) || char == ',':
			flush()

		case char == '"':
			flush()
			tokenType = TOKEN_STRING
			tokenStart = column + 1
			inString = true

		case char == '.':
			if tokenType != TOKEN_NONE {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
				continue
			}
			tokenType = TOKEN_DIRECTIVE
			tokenStart = column + 1
			builder.WriteRune(char)

		case char == '#':
			if tokenType != TOKEN_NONE {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
				continue
			}
			tokenType = TOKEN_LITERAL
			tokenStart = column + 1
			builder.WriteRune(char)

		case char == '-':
			if tokenType != TOKEN_LITERAL {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
				continue
			}
			builder.WriteRune(char)

		case unicode.IsDigit(char):
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_LITERAL
				tokenStart = column + 1
			}
			builder.WriteRune(char)

		case char == 'x' || char == 'X':
			if tokenType == TOKEN_NONE {
				if startsHexLiteral(line[column+1:]) {
					tokenType = TOKEN_LITERAL
				} else {
					tokenType = TOKEN_IDENT
				}
				tokenStart = column + 1
			}
			builder.WriteRune(char)

		case char == '_' || unicode.IsLetter(char):
			if char > unicode.MaxASCII {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
				continue
			}
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_IDENT
				tokenStart = column + 1
			}
			builder.WriteRune(char)

		default:
			errs = append(errs, &UnexpectedCharacterError{cursor, char})
		}
	}

	if inString {
		errs = append(errs, &InvalidStringError{Cursor{lineno, len(line)}})
	} else {
		flush()
	}

	return tokens, errs
}

// pcOffset resolves a PC-relative operand, either a label or a numeric
// literal, into a field of the given bit width. addr is the address of the
// instruction itself; the offset is taken from the incremented program
// counter.
func pcOffset(
	token *Token, addr uint16, bits LiteralType, labels map[string]uint16,
) (uint16, error) {
	if token.Type == TOKEN_LITERAL {
		return parseLiteral(token, bits)
	}

	if token.Type != TOKEN_IDENT {
		return 0, &InvalidOperandError{token.Position, "label or literal"}
	}

	target, ok := labels[strings.ToUpper(token.Value)]

	if !ok {
		return 0, &UnknownLabelError{token.Position, token.Value}
	}

	offset := int32(int16(target - addr - 1))

	if offset < -(int32(1)<<(bits-1)) || offset >= int32(1)<<(bits-1) {
		return 0, &OversizedLabelError{token.Position, token.Value, bits}
	}

	return uint16(offset) & uint16((uint32(1)<<bits)-1), nil
}

func wantOperands(st *statement, count int) error {
	if len(st.Operands) != count {
		return &InvalidNumArgumentsError{
			st.Keyword.Position, count, len(st.Operands),
		}
	}

	return nil
}

func registerOperand(token *Token) (uint16, error) {
	reg, ok := parseRegister(token)

	if !ok {
		return 0, &InvalidRegisterError{token.Position}
	}

	return reg, nil
}

// encodeInstruction produces the single word for an instruction statement.
func encodeInstruction(
	st *statement, labels map[string]uint16,
) (uint16, error) {
	upper := strings.ToUpper(st.Keyword.Value)

	if vector, ok := trapAliases[upper]; ok {
		if err := wantOperands(st, 0); err != nil {
			return 0, err
		}

		return machine.OP_TRAP<<12 | vector, nil
	}

	if flags, ok := parseBranch(upper); ok {
		if err := wantOperands(st, 1); err != nil {
			return 0, err
		}

		offset, err := pcOffset(
			&st.Operands[0], st.Addr, LITERAL_PCOFFSET9, labels,
		)

		if err != nil {
			return 0, err
		}

		return machine.OP_BR<<12 | flags<<9 | offset, nil
	}

	switch upper {
	case "ADD", "AND":
		opcode := machine.OP_ADD
		if upper == "AND" {
			opcode = machine.OP_AND
		}

		if err := wantOperands(st, 3); err != nil {
			return 0, err
		}

		dest, err := registerOperand(&st.Operands[0])
		if err != nil {
			return 0, err
		}

		src1, err := registerOperand(&st.Operands[1])
		if err != nil {
			return 0, err
		}

		if st.Operands[2].Type == TOKEN_LITERAL {
			imm5, err := parseLiteral(&st.Operands[2], LITERAL_IMM5)
			if err != nil {
				return 0, err
			}

			return opcode<<12 | dest<<9 | src1<<6 | 1<<5 | imm5, nil
		}

		src2, err := registerOperand(&st.Operands[2])
		if err != nil {
			return 0, err
		}

		return opcode<<12 | dest<<9 | src1<<6 | src2, nil

	case "NOT":
		if err := wantOperands(st, 2); err != nil {
			return 0, err
		}

		dest, err := registerOperand(&st.Operands[0])
		if err != nil {
			return 0, err
		}

		src, err := registerOperand(&st.Operands[1])
		if err != nil {
			return 0, err
		}

		return machine.OP_NOT<<12 | dest<<9 | src<<6 | 0x3F, nil

	case "JMP":
		if err := wantOperands(st, 1); err != nil {
			return 0, err
		}

		base, err := registerOperand(&st.Operands[0])
		if err != nil {
			return 0, err
		}

		return machine.OP_JMP<<12 | base<<6, nil

	case "RET":
		if err := wantOperands(st, 0); err != nil {
			return 0, err
		}

		return machine.OP_JMP<<12 | 7<<6, nil

	case "JSR":
		if err := wantOperands(st, 1); err != nil {
			return 0, err
		}

		offset, err := pcOffset(
			&st.Operands[0], st.Addr, LITERAL_PCOFFSET11, labels,
		)

		if err != nil {
			return 0, err
		}

		return machine.OP_JSR<<12 | 1<<11 | offset, nil

	case "JSRR":
		if err := wantOperands(st, 1); err != nil {
			return 0, err
		}

		base, err := registerOperand(&st.Operands[0])
		if err != nil {
			return 0, err
		}

		return machine.OP_JSR<<12 | base<<6, nil

	case "LD", "LDI", "LEA", "ST", "STI":
		var opcode uint16

		switch upper {
		case "LD":
			opcode = machine.OP_LD
		case "LDI":
			opcode = machine.OP_LDI
		case "LEA":
			opcode = machine.OP_LEA
		case "ST":
			opcode = machine.OP_ST
		case "STI":
			opcode = machine.OP_STI
		}

		if err := wantOperands(st, 2); err != nil {
			return 0, err
		}

		reg, err := registerOperand(&st.Operands[0])
		if err != nil {
			return 0, err
		}

		offset, err := pcOffset(
			&st.Operands[1], st.Addr, LITERAL_PCOFFSET9, labels,
		)

		if err != nil {
			return 0, err
		}

		return opcode<<12 | reg<<9 | offset, nil

	case "LDR", "STR":
		opcode := machine.OP_LDR
		if upper == "STR" {
			opcode = machine.OP_STR
		}

		if err := wantOperands(st, 3); err != nil {
			return 0, err
		}

		reg, err := registerOperand(&st.Operands[0])
		if err != nil {
			return 0, err
		}

		base, err := registerOperand(&st.Operands[1])
		if err != nil {
			return 0, err
		}

		offset, err := parseLiteral(&st.Operands[2], LITERAL_OFFSET6)
		if err != nil {
			return 0, err
		}

		return opcode<<12 | reg<<9 | base<<6 | offset, nil

	case "TRAP":
		if err := wantOperands(st, 1); err != nil {
			return 0, err
		}

		vector, err := parseLiteral(&st.Operands[0], LITERAL_TRAPVEC8)
		if err != nil {
			return 0, err
		}

		return machine.OP_TRAP<<12 | vector, nil

	case "RTI":
		if err := wantOperands(st, 0); err != nil {
			return 0, err
		}

		return machine.OP_RTI << 12, nil
	}

	return 0, &UnknownIdentifierError{st.Keyword.Position, st.Keyword.Value}
}

// statementSize is the number of words a statement occupies in the image.
func statementSize(st *statement) (uint16, error) {
	if st.Keyword.Type != TOKEN_DIRECTIVE {
		return 1, nil
	}

	switch parseDirective(st.Keyword.Value) {
	case DIRECTIVE_FILL:
		return 1, nil

	case DIRECTIVE_BLKW:
		if err := wantOperands(st, 1); err != nil {
			return 0, err
		}

		return parseLiteral(&st.Operands[0], LITERAL_WORD)

	case DIRECTIVE_STRINGZ:
		if err := wantOperands(st, 1); err != nil {
			return 0, err
		}

		if st.Operands[0].Type != TOKEN_STRING {
			return 0, &InvalidOperandError{
				st.Operands[0].Position, "string",
			}
		}

		value, err := unescapeString(&st.Operands[0])
		if err != nil {
			return 0, err
		}

		return uint16(len(value) + 1), nil
	}

	return 0, &UnknownIdentifierError{st.Keyword.Position, st.Keyword.Value}
}

// encodeDirective appends the words a data directive produces.
func encodeDirective(
	st *statement, labels map[string]uint16, out []uint16,
) ([]uint16, error) {
	switch parseDirective(st.Keyword.Value) {
	case DIRECTIVE_FILL:
		if err := wantOperands(st, 1); err != nil {
			return out, err
		}

		operand := &st.Operands[0]

		if operand.Type == TOKEN_IDENT {
			target, ok := labels[strings.ToUpper(operand.Value)]

			if !ok {
				return out, &UnknownLabelError{
					operand.Position, operand.Value,
				}
			}

			return append(out, target), nil
		}

		value, err := parseLiteral(operand, LITERAL_WORD)
		if err != nil {
			return out, err
		}

		return append(out, value), nil

	case DIRECTIVE_BLKW:
		count, err := parseLiteral(&st.Operands[0], LITERAL_WORD)
		if err != nil {
			return out, err
		}

		for i := uint16(0); i < count; i++ {
			out = append(out, 0)
		}

		return out, nil

	case DIRECTIVE_STRINGZ:
		value, err := unescapeString(&st.Operands[0])
		if err != nil {
			return out, err
		}

		for i := 0; i < len(value); i++ {
			out = append(out, uint16(value[i]))
		}

		return append(out, 0), nil
	}

	return out, &UnknownIdentifierError{st.Keyword.Position, st.Keyword.Value}
}

// Assemble translates LC-3 assembly source into a loadable image: the
// origin word followed by the program words. The first pass places every
// statement and records label addresses; the second pass encodes
// instructions against the completed label table. All errors found are
// returned together.
func Assemble(input io.Reader) ([]uint16, []error) {
	var statements []*statement
	var errs []error

	labels := make(map[string]uint16)

	var origin uint16
	originSet := false
	ended := false

	var addr uint16

	scanner := bufio.NewScanner(input)
	lineno := 0

	for scanner.Scan() && !ended {
		lineno++

		tokens, lineErrs := tokenizeLine(scanner.Text(), lineno)
		errs = append(errs, lineErrs...)

		if len(lineErrs) > 0 || len(tokens) == 0 {
			continue
		}

		// Leading identifier that is not a mnemonic declares a label
		if tokens[0].Type == TOKEN_IDENT && !isMnemonic(tokens[0].Value) {
			if !originSet {
				errs = append(errs, &MissingOriginError{tokens[0].Position})
				continue
			}

			name := strings.ToUpper(tokens[0].Value)

			if _, exists := labels[name]; exists {
				errs = append(errs, &RedeclaredLabelError{
					tokens[0].Position, tokens[0].Value,
				})
				continue
			}

			labels[name] = addr
			tokens = tokens[1:]

			if len(tokens) == 0 {
				continue
			}
		}

		keyword := tokens[0]

		if keyword.Type == TOKEN_DIRECTIVE {
			switch parseDirective(keyword.Value) {
			case DIRECTIVE_ORIG:
				if originSet {
					errs = append(errs, &DuplicateOriginError{
						keyword.Position,
					})
					continue
				}

				st := statement{keyword, tokens[1:], 0}

				if err := wantOperands(&st, 1); err != nil {
					errs = append(errs, err)
					continue
				}

				value, err := parseLiteral(&st.Operands[0], LITERAL_WORD)
				if err != nil {
					errs = append(errs, err)
					continue
				}

				origin = value
				addr = value
				originSet = true
				continue

			case DIRECTIVE_END:
				ended = true
				continue

			case DIRECTIVE_INVALID:
				errs = append(errs, &UnknownIdentifierError{
					keyword.Position, keyword.Value,
				})
				continue
			}
		} else if keyword.Type != TOKEN_IDENT {
			errs = append(errs, &InvalidOperandError{
				keyword.Position, "instruction or directive",
			})
			continue
		}

		if !originSet {
			errs = append(errs, &MissingOriginError{keyword.Position})
			continue
		}

		st := &statement{keyword, tokens[1:], addr}

		size, err := statementSize(st)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		statements = append(statements, st)
		addr += size
	}

	if err := scanner.Err(); err != nil {
		errs = append(errs, err)
	}

	if !originSet {
		errs = append(errs, &MissingOriginError{Cursor{lineno, 0}})
	}

	if len(errs) > 0 {
		return nil, errs
	}

	result := []uint16{origin}

	for _, st := range statements {
		if st.Keyword.Type == TOKEN_DIRECTIVE {
			var err error

			result, err = encodeDirective(st, labels, result)
			if err != nil {
				errs = append(errs, err)
			}

			continue
		}

		word, err := encodeInstruction(st, labels)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		result = append(result, word)
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return result, nil
}
