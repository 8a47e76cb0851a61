package emit

import (
	"fmt"

	"github.com/roach88/idlbind/internal/namespace"
)

// RuntimeUnits returns the support types needed by everything emitted so far:
// WireBuffer when any codec was generated, and one annotation type per
// marker in use.
func (e *Emitter) RuntimeUnits() []*Unit {
	ns := namespace.Runtime(e.opts.NamespacePrefix)
	var units []*Unit
	if e.wire {
		units = append(units, runtimeUnit(ns, "WireBuffer", wireBufferSource(ns)))
	}
	for _, m := range AllMarkers {
		if e.markers[m] {
			units = append(units, runtimeUnit(ns, string(m), markerSource(ns, m)))
		}
	}
	return units
}

func runtimeUnit(ns, name, content string) *Unit {
	return &Unit{
		Namespace: ns,
		Name:      name,
		Runtime:   true,
		Path:      namespace.UnitPath(ns, name, Extension),
		Content:   content,
	}
}

func markerSource(ns string, m Marker) string {
	var a Assembler
	a.Linef("package %s;", ns)
	a.Blank()
	a.Line("import java.lang.annotation.Documented;")
	a.Line("import java.lang.annotation.ElementType;")
	a.Line("import java.lang.annotation.Retention;")
	a.Line("import java.lang.annotation.RetentionPolicy;")
	a.Line("import java.lang.annotation.Target;")
	a.Blank()
	a.Line("@Documented")
	a.Line("@Retention(RetentionPolicy.RUNTIME)")
	a.Line("@Target({ElementType.TYPE, ElementType.FIELD, ElementType.RECORD_COMPONENT})")
	a.Block(fmt.Sprintf("public @interface %s", m), func() {})
	return a.String()
}

func wireBufferSource(ns string) string {
	return fmt.Sprintf("package %s;\n\n", ns) + wireBufferBody
}

const wireBufferBody = `import java.util.Arrays;

/**
 * Growable little-endian buffer used by generated encode and decode methods.
 * Writes append at the end; reads consume from the front.
 */
public final class WireBuffer {

    private byte[] data;
    private int position;
    private int limit;

    public WireBuffer() {
        this(64);
    }

    public WireBuffer(int capacity) {
        this.data = new byte[Math.max(capacity, 16)];
    }

    private WireBuffer(byte[] data, int limit) {
        this.data = data;
        this.limit = limit;
    }

    public static WireBuffer wrap(byte[] data) {
        return new WireBuffer(data, data.length);
    }

    public int position() {
        return position;
    }

    public int remaining() {
        return limit - position;
    }

    public byte[] toByteArray() {
        return Arrays.copyOf(data, limit);
    }

    private void ensure(int n) {
        if (limit + n > data.length) {
            data = Arrays.copyOf(data, Math.max(data.length * 2, limit + n));
        }
    }

    private void need(int n) {
        if (n < 0 || n > limit - position) {
            throw new IllegalStateException(
                "short buffer: need " + n + " bytes at offset " + position + ", have " + (limit - position));
        }
    }

    public void writeByte(int v) {
        ensure(1);
        data[limit++] = (byte) v;
    }

    public void writeShort(int v) {
        ensure(2);
        data[limit++] = (byte) v;
        data[limit++] = (byte) (v >>> 8);
    }

    public void writeInt(int v) {
        ensure(4);
        for (int i = 0; i < 4; i++) {
            data[limit++] = (byte) (v >>> (8 * i));
        }
    }

    public void writeLong(long v) {
        ensure(8);
        for (int i = 0; i < 8; i++) {
            data[limit++] = (byte) (v >>> (8 * i));
        }
    }

    public void writeFloat(float v) {
        writeInt(Float.floatToRawIntBits(v));
    }

    public void writeDouble(double v) {
        writeLong(Double.doubleToRawLongBits(v));
    }

    public void writeBytes(byte[] b) {
        ensure(b.length);
        System.arraycopy(b, 0, data, limit, b.length);
        limit += b.length;
    }

    public byte readByte() {
        need(1);
        return data[position++];
    }

    public short readShort() {
        need(2);
        int v = (data[position] & 0xff) | (data[position + 1] & 0xff) << 8;
        position += 2;
        return (short) v;
    }

    public int readInt() {
        need(4);
        int v = 0;
        for (int i = 0; i < 4; i++) {
            v |= (data[position + i] & 0xff) << (8 * i);
        }
        position += 4;
        return v;
    }

    public long readLong() {
        need(8);
        long v = 0;
        for (int i = 0; i < 8; i++) {
            v |= (data[position + i] & 0xffL) << (8 * i);
        }
        position += 8;
        return v;
    }

    public float readFloat() {
        return Float.intBitsToFloat(readInt());
    }

    public double readDouble() {
        return Double.longBitsToDouble(readLong());
    }

    public byte[] readBytes(int n) {
        need(n);
        byte[] b = Arrays.copyOfRange(data, position, position + n);
        position += n;
        return b;
    }
}
`
